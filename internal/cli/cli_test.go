package cli

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/buildfs/backend"
	"github.com/jmgilman/go/buildfs/host"
	"github.com/jmgilman/go/buildfs/session"
)

func run(t *testing.T, files map[string]string, args ...string) (string, error) {
	t.Helper()

	mem := backend.NewMemory()
	require.NoError(t, backend.Seed(mem, files))

	cmd := NewRootCmd(
		session.WithBackend(mem),
		session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		session.WithHostOptions(host.WithWindowsPaths(false), host.WithDeviceID(42)),
	)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--backend=memory", "--root=/project"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

var testFiles = map[string]string{
	"/project/src/main.ts":  "export const a = 1;",
	"/project/package.json": `{"name": "app"}`,
}

func TestCat(t *testing.T) {
	out, err := run(t, testFiles, "cat", "src/main.ts")
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1;", out)

	out, err = run(t, testFiles, "--overlay", "src/main.js=exports.a = 1;", "cat", "/project/src/main.js")
	require.NoError(t, err)
	assert.Equal(t, "exports.a = 1;", out)

	_, err = run(t, testFiles, "cat", "src/missing.ts")
	require.Error(t, err)
}

func TestLs(t *testing.T) {
	out, err := run(t, testFiles, "--overlay", "gen.js=x", "ls")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `gen\.js[\s|]+file[\s|]+virtual`, out)
	assert.Regexp(t, `package\.json[\s|]+file[\s|]+real`, out)
	assert.Regexp(t, `src[\s|]+dir[\s|]+real`, out)

	_, err = run(t, testFiles, "ls", "missing")
	require.Error(t, err)
}

func TestStat(t *testing.T) {
	out, err := run(t, testFiles, "stat", "src/main.ts", "package.json")
	require.NoError(t, err)

	assert.Contains(t, out, "/project/src/main.ts")
	assert.Contains(t, out, "/project/package.json")
	assert.Regexp(t, `/project/src/main\.ts[\s|]+19[\s|]+1[\s|]+\d+[\s|]+42`, out)

	_, err = run(t, testFiles, "stat", "missing.ts")
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
}

func TestOutputs(t *testing.T) {
	out, err := run(t, nil,
		"--overlay", "app.ngfactory.js=f",
		"--overlay", "app.ngstyle.js=s",
		"--overlay", "app.js=a",
		"outputs",
	)
	require.NoError(t, err)
	assert.Equal(t, "/project/app.ngfactory.js\n/project/app.ngstyle.js\n", out)
}

func TestOverlayWriteFailure(t *testing.T) {
	_, err := run(t, testFiles, "--overlay", "gen.js=x", "--overlay", "gen.js/x.js=y", "outputs")
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInternal, platformerrors.GetCode(err))
}

func TestConfigCmd(t *testing.T) {
	out, err := run(t, nil, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "root: /project")
	assert.Contains(t, out, "type: memory")
}

func TestInvalidFlags(t *testing.T) {
	_, err := run(t, nil, "--backend=ftp", "ls")
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "--backend=ftp", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version")
}
