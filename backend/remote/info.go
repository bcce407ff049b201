package remote

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/minio/minio-go/v7"
)

// fileInfo implements fs.FileInfo for objects and key prefixes.
type fileInfo struct {
	name    string
	size    int64
	modTime time.Time
	mode    fs.FileMode
}

func newFileInfo(name string, size int64, modTime time.Time, mode fs.FileMode) *fileInfo {
	return &fileInfo{name: name, size: size, modTime: modTime, mode: mode}
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *fileInfo) Sys() any           { return nil }

// translate converts MinIO errors to stdlib fs errors.
func translate(err error) error {
	if err == nil {
		return nil
	}

	errResp := minio.ToErrorResponse(err)
	switch errResp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return fs.ErrNotExist
	case "AccessDenied":
		return fs.ErrPermission
	}

	return fmt.Errorf("minio: %w", err)
}

// pathError wraps an error in a fs.PathError for the given operation and path.
func pathError(op, path string, err error) error {
	return &fs.PathError{Op: op, Path: path, Err: err}
}

var _ fs.FileInfo = (*fileInfo)(nil)
