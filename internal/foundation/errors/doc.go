// Package errors provides the classified error primitives used across assetpipe.
//
// Errors carry a category (config, not_found, build, filesystem, ...), a severity and a
// free-form context map. The orchestrator's error taxonomy maps onto them as follows:
//
//   - configuration errors: CategoryConfig, SeverityFatal, returned before any stage runs
//   - input not found: CategoryNotFound, treated as a skip
//   - stage failures: CategoryBuild, carried in the build report
//   - cleanup warnings: CategoryFileSystem, SeverityWarning, carried in the build report
//
// Example usage:
//
//	err := errors.ConfigError("duplicate stage id").
//		WithContext("stage", id).
//		Build()
package errors
