package store

import (
	"errors"
	"io/fs"
)

// ErrNotDirectory is returned by List when the path names a regular file.
var ErrNotDirectory = errors.New("not a directory")

// pathError wraps an error in a fs.PathError for the given operation and path.
// If the error is nil, returns nil.
func pathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return &fs.PathError{Op: op, Path: path, Err: pe.Err}
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}

// isNotExist reports whether err means the path is absent.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
