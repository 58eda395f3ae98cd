package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dl-alexandre/qrcgen/internal/types"
	"github.com/dl-alexandre/qrcgen/internal/utils"
)

const (
	backupName = "resources.qrc.backup_20240102_030405"

	scenarioManifest = `<?xml version="1.0" encoding="UTF-8"?>
<RCC>
    <qresource prefix="/">
        <file>images/icons/x.svg</file>
        <file>images/logo.PNG</file>
    </qresource>
</RCC>
`
	previousManifest = `<?xml version="1.0" encoding="UTF-8"?>
<RCC>
    <qresource prefix="/">
        <file>images/old.png</file>
    </qresource>
</RCC>
`
)

func fixedClock() time.Time {
	return time.Date(2024, time.January, 2, 3, 4, 5, 0, time.Local)
}

type runResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, fs billy.Filesystem, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr,
		WithFilesystem(fs),
		WithWorkDir(t.TempDir()),
		WithClock(fixedClock),
	)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func scenarioFS(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for _, name := range []string{"images/logo.PNG", "images/icons/x.svg", "images/readme.txt"} {
		require.NoError(t, util.WriteFile(fs, name, []byte("data"), 0o644))
	}
	return fs
}

func readFile(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func assertMissing(t *testing.T, fs billy.Filesystem, name string) {
	t.Helper()
	_, err := fs.Stat(name)
	assert.True(t, errors.Is(err, os.ErrNotExist), "%s should not exist, stat err = %v", name, err)
}

// failingFS refuses to create one path.
type failingFS struct {
	billy.Filesystem
	failOn string
}

func (f *failingFS) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	if name == f.failOn {
		return nil, errors.New("permission denied")
	}
	return f.Filesystem.OpenFile(name, flag, perm)
}

func TestGenerate_FreshManifest(t *testing.T) {
	fs := scenarioFS(t)

	res := runCLI(t, fs)

	require.Equal(t, utils.ExitSuccess, res.code, res.stdout)
	assert.Empty(t, res.stderr)
	assert.Equal(t, scenarioManifest, readFile(t, fs, "resources.qrc"))
	assertMissing(t, fs, backupName)

	assert.Contains(t, res.stdout, "qrcgen - Qt resource manifest generator")
	assert.Contains(t, res.stdout, "\nimages/icons/\n  ├─ x.svg\n")
	assert.Contains(t, res.stdout, "\nimages/\n  ├─ logo.PNG\n")
	assert.NotContains(t, res.stdout, "readme.txt")
	assert.Contains(t, res.stdout, "✓ Wrote resources.qrc")
	assert.Contains(t, res.stdout, "✓ 2 resource files included")
	assert.NotContains(t, res.stdout, "Backed up")
}

func TestGenerate_BacksUpExistingManifest(t *testing.T) {
	fs := scenarioFS(t)
	require.NoError(t, util.WriteFile(fs, "resources.qrc", []byte(previousManifest), 0o644))

	res := runCLI(t, fs)

	require.Equal(t, utils.ExitSuccess, res.code, res.stdout)
	assert.Equal(t, previousManifest, readFile(t, fs, backupName))
	assert.Equal(t, scenarioManifest, readFile(t, fs, "resources.qrc"))
	assert.Contains(t, res.stdout, "Found existing resources.qrc")
	assert.Contains(t, res.stdout, "✓ Backed up existing manifest to "+backupName)
}

func TestGenerate_MissingImagesDir(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "resources.qrc", []byte(previousManifest), 0o644))

	res := runCLI(t, fs)

	assert.Equal(t, utils.ExitInputMissing, res.code)
	assert.Empty(t, res.stderr)
	assert.Contains(t, res.stdout, "Warning: images directory not found")
	assert.NotContains(t, res.stdout, "Error:")
	assert.Equal(t, previousManifest, readFile(t, fs, "resources.qrc"))
	assertMissing(t, fs, backupName)
}

func TestGenerate_MissingImagesDirNoManifest(t *testing.T) {
	fs := memfs.New()

	res := runCLI(t, fs)

	assert.Equal(t, utils.ExitInputMissing, res.code)
	assertMissing(t, fs, "resources.qrc")
}

func TestGenerate_NoImages(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "images/readme.txt", []byte("x"), 0o644))
	require.NoError(t, util.WriteFile(fs, "resources.qrc", []byte(previousManifest), 0o644))

	res := runCLI(t, fs)

	assert.Equal(t, utils.ExitNoImages, res.code)
	assert.Contains(t, res.stdout, "Warning: no image files found in images")
	assert.Equal(t, previousManifest, readFile(t, fs, "resources.qrc"))
	assertMissing(t, fs, backupName)
}

func TestGenerate_BackupFailureKeepsManifest(t *testing.T) {
	mem := scenarioFS(t)
	require.NoError(t, util.WriteFile(mem, "resources.qrc", []byte(previousManifest), 0o644))
	fs := &failingFS{Filesystem: mem, failOn: backupName}

	res := runCLI(t, fs)

	assert.Equal(t, utils.ExitBackupFailed, res.code)
	assert.Contains(t, res.stdout, "Error: could not back up resources.qrc")
	assert.NotContains(t, res.stdout, "✓ Wrote")
	assert.Equal(t, previousManifest, readFile(t, mem, "resources.qrc"))
}

func TestGenerate_WriteFailure(t *testing.T) {
	mem := scenarioFS(t)
	fs := &failingFS{Filesystem: mem, failOn: "resources.qrc"}

	res := runCLI(t, fs)

	assert.Equal(t, utils.ExitWriteFailed, res.code)
	assert.Contains(t, res.stdout, "Error: failed to write resources.qrc")
}

func TestGenerate_NoBackup(t *testing.T) {
	fs := scenarioFS(t)
	require.NoError(t, util.WriteFile(fs, "resources.qrc", []byte(previousManifest), 0o644))

	res := runCLI(t, fs, "--no-backup")

	require.Equal(t, utils.ExitSuccess, res.code, res.stdout)
	assert.Equal(t, scenarioManifest, readFile(t, fs, "resources.qrc"))
	assertMissing(t, fs, backupName)
}

func TestGenerate_DryRun(t *testing.T) {
	fs := scenarioFS(t)
	require.NoError(t, util.WriteFile(fs, "resources.qrc", []byte(previousManifest), 0o644))

	res := runCLI(t, fs, "--dry-run")

	require.Equal(t, utils.ExitSuccess, res.code, res.stdout)
	assert.Contains(t, res.stdout, strings.TrimRight(scenarioManifest, "\n"))
	assert.Equal(t, previousManifest, readFile(t, fs, "resources.qrc"))
	assertMissing(t, fs, backupName)
}

func TestGenerate_Check(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     int
		message  string
	}{
		{"up to date", scenarioManifest, utils.ExitSuccess, "✓ resources.qrc is up to date"},
		{"extra trailing newline", scenarioManifest + "\n", utils.ExitSuccess, "✓ resources.qrc is up to date"},
		{"stale", previousManifest, utils.ExitStale, "Error: resources.qrc is out of date"},
		{"missing", "", utils.ExitStale, "Error: resources.qrc does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := scenarioFS(t)
			if tt.existing != "" {
				require.NoError(t, util.WriteFile(fs, "resources.qrc", []byte(tt.existing), 0o644))
			}

			res := runCLI(t, fs, "--check")

			assert.Equal(t, tt.want, res.code)
			assert.Contains(t, res.stdout, tt.message)
			assertMissing(t, fs, backupName)
			if tt.existing == "" {
				assertMissing(t, fs, "resources.qrc")
			} else {
				assert.Equal(t, tt.existing, readFile(t, fs, "resources.qrc"))
			}
		})
	}
}

func TestGenerate_CustomPaths(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "assets/img/a.png", []byte("x"), 0o644))

	res := runCLI(t, fs, "--images", "./assets/img/", "-o", "ui/app.qrc")

	require.Equal(t, utils.ExitSuccess, res.code, res.stdout)
	assert.Contains(t, readFile(t, fs, filepath.Join("ui", "app.qrc")), "<file>assets/img/a.png</file>")
}

func TestGenerate_Quiet(t *testing.T) {
	fs := scenarioFS(t)

	res := runCLI(t, fs, "--quiet")

	require.Equal(t, utils.ExitSuccess, res.code)
	assert.NotContains(t, res.stdout, "====")
	assert.NotContains(t, res.stdout, "├─")
	assert.Contains(t, res.stdout, "✓ Wrote resources.qrc")
}

func TestGenerate_JSON(t *testing.T) {
	fs := scenarioFS(t)
	require.NoError(t, util.WriteFile(fs, "resources.qrc", []byte(previousManifest), 0o644))

	res := runCLI(t, fs, "--format", "json")
	require.Equal(t, utils.ExitSuccess, res.code, res.stdout)

	var out struct {
		SchemaVersion string               `json:"schemaVersion"`
		TraceID       string               `json:"traceId"`
		Command       string               `json:"command"`
		Data          types.GenerateResult `json:"data"`
		Errors        []types.CLIError     `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out), res.stdout)

	_, err := uuid.Parse(out.TraceID)
	assert.NoError(t, err)
	assert.Equal(t, utils.SchemaVersion, out.SchemaVersion)
	assert.Equal(t, "generate", out.Command)
	assert.Empty(t, out.Errors)
	assert.Equal(t, []string{"images/icons/x.svg", "images/logo.PNG"}, out.Data.Files)
	assert.Equal(t, 2, out.Data.Count)
	assert.Equal(t, backupName, out.Data.Backup)
	assert.True(t, out.Data.Written)
}

func TestGenerate_JSONError(t *testing.T) {
	res := runCLI(t, memfs.New(), "--format", "json")
	require.Equal(t, utils.ExitInputMissing, res.code)

	var out types.CLIOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out), res.stdout)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, utils.ErrCodeInputMissing, out.Errors[0].Code)
	assert.Equal(t, "images", out.Errors[0].Context["root"])
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, utils.ErrCodeInputMissing, out.Warnings[0].Code)
}

func TestGenerate_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"bad format", []string{"--format", "xml"}, "invalid output format"},
		{"unknown flag", []string{"--bogus"}, "unknown flag"},
		{"extra argument", []string{"images"}, "unexpected argument"},
		{"dry run and check", []string{"--dry-run", "--check"}, "cannot be combined"},
		{"bad log level", []string{"--log-level", "loud"}, "invalid log level"},
		{"images outside work dir", []string{"--images", "../images"}, "outside the working directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := scenarioFS(t)

			res := runCLI(t, fs, tt.args...)

			assert.Equal(t, utils.ExitInvalidArgument, res.code)
			assert.Contains(t, res.stderr, tt.message)
			assertMissing(t, fs, "resources.qrc")
		})
	}
}

func TestGenerate_LogFile(t *testing.T) {
	fs := scenarioFS(t)
	logPath := filepath.Join(t.TempDir(), "qrcgen.log")

	res := runCLI(t, fs, "--log-file", logPath)
	require.Equal(t, utils.ExitSuccess, res.code)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"manifest written"`)
	assert.Contains(t, string(data), `"traceId":"`)
}

func TestGenerate_LogLevelFiltersFileLog(t *testing.T) {
	fs := scenarioFS(t)
	logPath := filepath.Join(t.TempDir(), "qrcgen.log")

	res := runCLI(t, fs, "--log-file", logPath, "--log-level", "warn", "--check")
	require.Equal(t, utils.ExitStale, res.code)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"level":"INFO"`)
	assert.Contains(t, string(data), `"message":"manifest check failed"`)
}

func TestGenerate_Verbose(t *testing.T) {
	fs := scenarioFS(t)

	res := runCLI(t, fs, "--verbose")

	require.Equal(t, utils.ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "DEBUG")
	assert.Contains(t, res.stdout, "scan complete")
}

func TestGenerate_OSFilesystem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images", "icons"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "logo.PNG"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "icons", "x.svg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resources.qrc"), []byte(previousManifest), 0o644))

	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, WithWorkDir(dir), WithClock(fixedClock))
	require.Equal(t, utils.ExitSuccess, code, stdout.String())

	got, err := os.ReadFile(filepath.Join(dir, "resources.qrc"))
	require.NoError(t, err)
	assert.Equal(t, scenarioManifest, string(got))

	backup, err := os.ReadFile(filepath.Join(dir, backupName))
	require.NoError(t, err)
	assert.Equal(t, previousManifest, string(backup))
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, memfs.New(), "version")

	assert.Equal(t, utils.ExitSuccess, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "qrcgen dev"), res.stdout)
}

func TestGenerate_SymlinkedImagesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets", "icons"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "icons", "a.png"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink("assets", filepath.Join(dir, "images")))

	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, WithWorkDir(dir), WithClock(fixedClock))
	require.Equal(t, utils.ExitSuccess, code, stdout.String())

	got, err := os.ReadFile(filepath.Join(dir, "resources.qrc"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "<file>images/icons/a.png</file>")
}
