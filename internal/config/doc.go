// Package config provides centralized configuration management for the
// correlation engine. It handles loading configuration from multiple
// sources, validation, and a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file (corrlens.yaml or configs/corrlens.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CORRLENS_* for namespacing:
//
//	CORRLENS_ANALYSIS_TOP_K=10
//	CORRLENS_ANALYSIS_MAX_CONCURRENCY=8
//	CORRLENS_PATHS_DATA_DIR=/var/lib/corrlens/data
//	CORRLENS_LOGGING_LEVEL=debug
//	CORRLENS_METRICS_ENABLED=true
//
// # Sections
//
// Analysis carries the correlation policy: the minimum shared-date overlap,
// the default ranking depth, resolver concurrency and pacing, and the
// default trade date windows for pair and matrix analyses. Logging, Paths,
// and Metrics configure the ambient concerns.
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Policy values are within acceptable ranges
//	- Date windows parse and are ordered
//	- Logging settings are normalized to supported modes
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
