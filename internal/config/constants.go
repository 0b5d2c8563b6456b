package config

import "time"

// Application constants
const (
	// Application Info
	AppName = "CorrLens"

	// Default directories, relative to the working directory
	DefaultDataDir    = "data"
	DefaultReportsDir = "reports"
	DefaultLogsDir    = "logs"

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Analysis policy bounds
	MinTopK = 1
	MaxTopK = 100

	// Fetch pacing
	DefaultFetchTimeout = 30 * time.Second
	DefaultFetchRateRPS = 8
	DefaultFetchBurst   = 1
)
