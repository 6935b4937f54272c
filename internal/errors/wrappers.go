package errors

import "fmt"

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapGenerateError wraps an error with a "failed to generate" message
func WrapGenerateError(item string, cause error) *BaseError {
	return Wrap(GenerationErrorCode, fmt.Sprintf("failed to generate %s", item), cause).
		WithContext("target", item)
}

// WrapConfigError wraps configuration loading and validation errors
func WrapConfigError(path string, cause error) *BaseError {
	return Wrap(ConfigErrorCode, fmt.Sprintf("invalid configuration '%s'", path), cause).
		WithContext("path", path)
}

// NewConfigError creates a configuration error for a single bad field
func NewConfigError(field, value string, allowed ...string) *BaseError {
	err := New(ConfigErrorCode, fmt.Sprintf("invalid value '%s' for %s", value, field)).
		WithContext("field", field)
	if len(allowed) > 0 {
		err.WithSuggestion(fmt.Sprintf("Allowed values: %v", allowed))
	}
	return err
}

// AsMockableError converts any error into a MockableError, wrapping foreign errors
func AsMockableError(err error) MockableError {
	if err == nil {
		return nil
	}
	if me, ok := err.(MockableError); ok {
		return me
	}
	return Wrap(UnknownErrorCode, err.Error(), err)
}
