package utils

import "github.com/toyz/mockable/internal/errors"

// WrapProcessError wraps a file-system failure met while processing item.
// The cause stays in the message since callers print it without unwrapping.
func WrapProcessError(item string, err error) error {
	return errors.Wrapf(errors.FileSystemErrorCode, err, "failed to process %s: %v", item, err)
}
