package remote

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config with credentials",
			config: Config{
				Endpoint:  "localhost:9000",
				Bucket:    "sources",
				AccessKey: "minioadmin",
				SecretKey: "minioadmin",
			},
		},
		{
			name: "valid config with client",
			config: Config{
				Client: &minio.Client{},
				Bucket: "sources",
			},
		},
		{
			name:    "missing bucket",
			config:  Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"},
			wantErr: true,
			errMsg:  "bucket is required",
		},
		{
			name:    "missing endpoint without client",
			config:  Config{Bucket: "sources", AccessKey: "a", SecretKey: "s"},
			wantErr: true,
			errMsg:  "endpoint is required",
		},
		{
			name:    "missing access key",
			config:  Config{Endpoint: "localhost:9000", Bucket: "sources", SecretKey: "s"},
			wantErr: true,
			errMsg:  "access key is required",
		},
		{
			name:    "missing secret key",
			config:  Config{Endpoint: "localhost:9000", Bucket: "sources", AccessKey: "a"},
			wantErr: true,
			errMsg:  "secret key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))

	_, err = New(Config{Client: &minio.Client{}, Bucket: "b", Timeout: -time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout must not be negative")
	assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))

	_, err = New(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "id",
		SecretKey: "secret",
		Bucket:    "b",
		Timeout:   -time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout must not be negative")
}

func TestNew_Timeout(t *testing.T) {
	r, err := New(Config{Client: &minio.Client{}, Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, r.timeout)

	r, err = New(Config{Client: &minio.Client{}, Bucket: "b", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, time.Second, r.timeout)

	ctx, cancel := r.request()
	defer cancel()
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		path   string
		want   string
	}{
		{name: "no prefix absolute", path: "/project/src/a.ts", want: "project/src/a.ts"},
		{name: "no prefix root", path: "/", want: ""},
		{name: "prefix", prefix: "builds/42/", path: "/project/a.ts", want: "builds/42/project/a.ts"},
		{name: "prefix root", prefix: "/builds/42", path: "/", want: "builds/42"},
		{name: "backslashes", path: "project\\src\\a.ts", want: "project/src/a.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(Config{Client: &minio.Client{}, Bucket: "b", Prefix: tt.prefix})
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.key(tt.path))
		})
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	notFound := minio.ErrorResponse{Code: "NoSuchKey"}
	assert.True(t, errors.Is(translate(notFound), fs.ErrNotExist))

	noBucket := minio.ErrorResponse{Code: "NoSuchBucket"}
	assert.True(t, errors.Is(translate(noBucket), fs.ErrNotExist))

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	assert.True(t, errors.Is(translate(denied), fs.ErrPermission))

	other := errors.New("connection reset")
	translated := translate(other)
	assert.True(t, errors.Is(translated, other))
	assert.Contains(t, translated.Error(), "minio:")
}

func TestFileInfo(t *testing.T) {
	mod := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	fi := newFileInfo("a.ts", 42, mod, 0o644)
	assert.Equal(t, "a.ts", fi.Name())
	assert.Equal(t, int64(42), fi.Size())
	assert.Equal(t, mod, fi.ModTime())
	assert.False(t, fi.IsDir())
	assert.True(t, fi.Mode().IsRegular())

	dir := newFileInfo("src", 0, time.Time{}, fs.ModeDir|0o755)
	assert.True(t, dir.IsDir())
}
