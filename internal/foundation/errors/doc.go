// Package errors provides the classified error primitives used across sitekeeper.
//
// Key features:
//   - ErrorCategory: broad classification (config, validation, git, filesystem, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether a caller may retry
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.WrapError(ioErr, errors.CategoryFileSystem, "write collection failed").
//		WithContext("kind", "reviews").
//		Build()
package errors
