// Package shared provides common utilities and test helpers used across the
// corrlens codebase. It serves as a central location for functionality that
// doesn't belong to any specific domain or architectural layer.
//
// # Structure
//
// The package is organized into the following components:
//
// - testutil: Testing utilities including log capture handlers and assertions
//
// # Usage Guidelines
//
// This package should only contain:
//
// 1. Test utilities used by multiple packages
// 2. Generic helper functions with no domain-specific logic
// 3. Common constants or types used across packages
//
// It should NOT contain:
//
// 1. Business logic or domain-specific code
// 2. External dependencies beyond standard library
// 3. Circular dependencies with other internal packages
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - A slog.Handler that captures records for assertion
//   - Assertion helpers for log messages and attributes
//   - A discarding logger for tests that ignore log output
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger()
//	    svc := NewService(deps, logger)
//
//	    svc.Do(ctx)
//
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "completed")
//	}
package shared
