package downloader

import (
	"errors"
	"fmt"
)

// FilesystemError is returned when a local file operation fails.
type FilesystemError struct {
	// Op is the failed operation: "mkdir", "stat", "create" or "write".
	Op string

	// Path is the file or directory involved.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// IsFilesystemError reports whether err is or wraps a *FilesystemError.
func IsFilesystemError(err error) bool {
	var fe *FilesystemError
	return errors.As(err, &fe)
}
