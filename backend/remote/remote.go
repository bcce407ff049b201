package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jmgilman/go/buildfs/internal/pathutil"
)

// FS implements core.ReadFS for MinIO/S3-compatible storage.
type FS struct {
	client  *minio.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

// New creates a read-only remote backend. No request is made; a missing
// bucket surfaces as fs.ErrNotExist on first access. Configuration failures
// carry CodeInvalidConfig.
func New(cfg Config) (*FS, error) {
	if err := cfg.validate(); err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "invalid config")
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to create minio client")
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &FS{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(pathutil.Normalize(cfg.Prefix), "/"),
		timeout: timeout,
	}, nil
}

// request returns a context bounding one backend call.
func (r *FS) request() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

// key converts a path to the object key it is stored under.
func (r *FS) key(name string) string {
	rel := strings.Trim(pathutil.Normalize(name), "/")
	switch {
	case r.prefix == "":
		return rel
	case rel == "":
		return r.prefix
	default:
		return r.prefix + "/" + rel
	}
}

// dirKey returns the listing prefix for a directory key.
func dirKey(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

// Open opens the named file for reading. The object is read fully into memory.
func (r *FS) Open(name string) (fs.File, error) {
	info, err := r.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, pathError("open", name, errors.New("is a directory"))
	}

	data, err := r.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return &file{Reader: bytes.NewReader(data), info: info}, nil
}

// Stat returns file information for the named file or directory prefix.
func (r *FS) Stat(name string) (fs.FileInfo, error) {
	key := r.key(name)
	ctx, cancel := r.request()
	defer cancel()
	rel := strings.Trim(pathutil.Normalize(name), "/")
	base := path.Base("/" + rel)

	// The backend root is always a directory and never an object.
	if rel != "" {
		info, err := r.client.StatObject(ctx, r.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return newFileInfo(base, info.Size, info.LastModified, 0o644), nil
		}
		if translated := translate(err); !errors.Is(translated, fs.ErrNotExist) {
			return nil, pathError("stat", name, translated)
		}
	}

	isDir, err := r.hasChildren(ctx, key)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	if !isDir {
		return nil, pathError("stat", name, fs.ErrNotExist)
	}
	return newFileInfo(base, 0, time.Time{}, fs.ModeDir|0o755), nil
}

// hasChildren reports whether any object lives under the directory key.
func (r *FS) hasChildren(ctx context.Context, key string) (bool, error) {
	if key == r.prefix {
		return true, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for object := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix:  dirKey(key),
		MaxKeys: 1,
	}) {
		if object.Err != nil {
			return false, translate(object.Err)
		}
		return true, nil
	}
	return false, nil
}

// ReadDir reads the named directory and returns its entries sorted by name.
func (r *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	prefix := dirKey(r.key(name))
	ctx, cancel := r.request()
	defer cancel()

	var entries []fs.DirEntry
	for object := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if object.Err != nil {
			return nil, pathError("readdir", name, translate(object.Err))
		}
		if object.Key == prefix {
			continue
		}

		relName := strings.TrimPrefix(object.Key, prefix)
		isDir := strings.HasSuffix(relName, "/")
		relName = strings.TrimSuffix(relName, "/")
		if relName == "" {
			continue
		}

		mode := fs.FileMode(0o644)
		if isDir {
			mode = fs.ModeDir | 0o755
		}
		entries = append(entries, fs.FileInfoToDirEntry(
			newFileInfo(relName, object.Size, object.LastModified, mode),
		))
	}

	if len(entries) == 0 {
		isDir, err := r.hasChildren(ctx, r.key(name))
		if err != nil {
			return nil, pathError("readdir", name, err)
		}
		if !isDir {
			return nil, pathError("readdir", name, fs.ErrNotExist)
		}
	}

	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}

// ReadFile reads the named file and returns the contents.
func (r *FS) ReadFile(name string) ([]byte, error) {
	ctx, cancel := r.request()
	defer cancel()

	obj, err := r.client.GetObject(ctx, r.bucket, r.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, pathError("readfile", name, translate(err))
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, pathError("readfile", name, translate(err))
	}
	return data, nil
}

// Exists reports whether the named file or directory exists.
func (r *FS) Exists(name string) (bool, error) {
	_, err := r.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// file is an in-memory fs.File holding a fully read object.
type file struct {
	*bytes.Reader
	info fs.FileInfo
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *file) Close() error               { return nil }

// Compile-time interface checks.
var (
	_ core.ReadFS = (*FS)(nil)
	_ fs.File     = (*file)(nil)
)
