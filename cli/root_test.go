package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/mcphackers/mcpctl/cli/helpers"
	"github.com/mcphackers/mcpctl/cli/report"
	"github.com/mcphackers/mcpctl/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectYAML = `
toolchain:
  commands:
    decompile: "sh -c 'mkdir -p src/minecraft && touch src/minecraft/Block.java && echo Decompiling {{ .Side }} && echo 100%'"
    recompile: "sh -c 'echo javac failed on Block.java; exit 1'"
catalog:
  file: versions.json
`

func newProject(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("toolchain commands use sh")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFile), []byte(projectYAML), 0o600))
	manifest := `{"versions": [{"id": "b1.7.3", "type": "old_beta", "releaseTime": "2011-07-08T00:00:00Z"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "versions.json"), []byte(manifest), 0o600))
	return dir
}

func execute(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	cmd := RootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	base := []string{"--cwd", dir, "--env-file", "", "--log-level", "disabled", "--format", "json"}
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func events(t *testing.T, out string) []report.Event {
	t.Helper()
	var list []report.Event
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var e report.Event
		require.NoError(t, dec.Decode(&e))
		list = append(list, e)
	}
	return list
}

func cliCode(t *testing.T, err error) string {
	t.Helper()
	var cliErr *helpers.CliError
	require.True(t, errors.As(err, &cliErr), "expected a CLI error, got %v", err)
	return cliErr.Code
}

func TestSetupGlobalConfig(t *testing.T) {
	t.Run("Should inject the YAML configuration into the context", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "custom.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("project:\n  side: server\n"), 0o600))

		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", "", "--config", cfgPath, "--yes"}))
		require.NoError(t, SetupGlobalConfig(cmd))

		cfg := config.FromContext(cmd.Context())
		assert.Equal(t, "server", cfg.Project.Side)
		assert.True(t, cfg.CLI.AssumeYes)
	})

	t.Run("Should reject an invalid configuration", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "custom.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("cli:\n  format: xml\n"), 0o600))

		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", "", "--config", cfgPath}))
		err := SetupGlobalConfig(cmd)
		assert.Equal(t, helpers.CodeConfig, cliCode(t, err))
	})
}

func TestModeCommands(t *testing.T) {
	t.Run("Should run decompile and report progress as JSON", func(t *testing.T) {
		dir := newProject(t)
		out, _, err := execute(t, dir, "decompile", "--side", "client")
		require.NoError(t, err)

		list := events(t, out)
		require.NotEmpty(t, list)
		assert.Equal(t, "Decompiling client", list[0].Message)
		last := list[len(list)-1]
		assert.Equal(t, report.EventOutcome, last.Type)
		assert.Equal(t, "SUCCESS", last.Status)
		assert.FileExists(t, filepath.Join(dir, "src", "minecraft", "Block.java"))
	})

	t.Run("Should pick up earlier results from disk", func(t *testing.T) {
		dir := newProject(t)
		_, _, err := execute(t, dir, "decompile", "--side", "client")
		require.NoError(t, err)

		out, _, err := execute(t, dir, "status")
		require.NoError(t, err)
		var st report.Status
		require.NoError(t, json.Unmarshal([]byte(out), &st))
		assert.True(t, st.Flags["client"].Sources)
		assert.True(t, st.Availability["client"]["recompile"])
		assert.False(t, st.Availability["server"]["recompile"])
	})

	t.Run("Should refuse an ineligible mode", func(t *testing.T) {
		dir := newProject(t)
		_, stderr, err := execute(t, dir, "build", "--side", "server")
		assert.Equal(t, helpers.CodeIneligible, cliCode(t, err))
		assert.Contains(t, stderr, helpers.CodeIneligible)
	})

	t.Run("Should decline a re-decompile without input", func(t *testing.T) {
		dir := newProject(t)
		_, _, err := execute(t, dir, "decompile", "--side", "client")
		require.NoError(t, err)

		_, _, err = execute(t, dir, "decompile", "--side", "client")
		assert.Equal(t, helpers.CodeDeclined, cliCode(t, err))
	})

	t.Run("Should report the last output line of a failed command", func(t *testing.T) {
		dir := newProject(t)
		_, _, err := execute(t, dir, "decompile", "--side", "client")
		require.NoError(t, err)

		out, _, err := execute(t, dir, "run", "recompile", "--side", "client")
		assert.Equal(t, helpers.CodeFailed, cliCode(t, err))
		list := events(t, out)
		last := list[len(list)-1]
		assert.Equal(t, "FAILED", last.Status)
		assert.Contains(t, last.Error, "javac failed on Block.java")
	})

	t.Run("Should refuse to work on a locked project", func(t *testing.T) {
		dir := newProject(t)
		lock := flock.New(filepath.Join(dir, LockFile))
		ok, err := lock.TryLock()
		require.NoError(t, err)
		require.True(t, ok)
		t.Cleanup(func() { _ = lock.Unlock() })

		_, _, err = execute(t, dir, "decompile", "--side", "client")
		assert.Equal(t, helpers.CodeLocked, cliCode(t, err))
	})

	t.Run("Should reject unknown mode names", func(t *testing.T) {
		dir := newProject(t)
		_, _, err := execute(t, dir, "run", "obfuscate-harder")
		assert.Equal(t, helpers.CodeInvalidArg, cliCode(t, err))
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("Should install a catalog version with assume yes", func(t *testing.T) {
		dir := newProject(t)
		_, _, err := execute(t, dir, "setup", "b1.7.3", "--yes")
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "conf", "version.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"b1.7.3"`)

		out, _, err := execute(t, dir, "versions")
		require.NoError(t, err)
		assert.Contains(t, out, `"old_beta"`)
	})

	t.Run("Should accept any id when the project has no manifest", func(t *testing.T) {
		dir := t.TempDir()
		out, _, err := execute(t, dir, "setup", "b1.7.3", "--yes")
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "conf", "version.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"b1.7.3"`)
		list := events(t, out)
		require.NotEmpty(t, list)
		last := list[len(list)-1]
		assert.Equal(t, report.EventVersion, last.Type)
		require.NotNil(t, last.Version)
		assert.Equal(t, "b1.7.3", last.Version.ID)
	})

	t.Run("Should refuse setup for a concrete side", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := execute(t, dir, "run", "setup", "--side", "client", "--yes")
		assert.Equal(t, helpers.CodeIneligible, cliCode(t, err))
		assert.NoFileExists(t, filepath.Join(dir, "conf", "version.json"))
	})

	t.Run("Should fail for unknown versions", func(t *testing.T) {
		dir := newProject(t)
		_, _, err := execute(t, dir, "setup", "r1.0", "--yes")
		assert.Equal(t, helpers.CodeNotFound, cliCode(t, err))
	})
}

func TestVersionCommand(t *testing.T) {
	t.Run("Should print build information", func(t *testing.T) {
		out, _, err := execute(t, t.TempDir(), "version")
		require.NoError(t, err)
		assert.Contains(t, out, `"version"`)
	})
}
