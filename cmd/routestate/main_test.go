package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/routestate/internal/config"
	"github.com/vango-dev/routestate/pkg/route"
)

const testConfig = `{
  "tree": {
    "children": [
      {"name": "home"},
      {
        "name": "users",
        "capturePath": true,
        "params": [{"kind": "boolean", "variable": "flag"}]
      },
      {
        "name": "search",
        "params": [{"kind": "string", "variable": "query", "query": "q"}]
      }
    ]
  },
  "store": {"kind": "file"},
  "initialURL": "/home"
}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.JSONFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParse(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, _, err := run(t, "", "parse", "--config", cfg, "/users/42?flag")
	require.NoError(t, err)

	var state route.State
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, "users", state.Active())
	assert.Equal(t, true, state.Children["users"].QueryParams["flag"])
	require.NotNil(t, state.Children["users"].Path)
	assert.Equal(t, "42", *state.Children["users"].Path)
}

func TestParseCompact(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, _, err := run(t, "", "parse", "--compact", "-c", cfg, "/")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNormalize(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, _, err := run(t, "", "normalize", "-c", cfg, "//users/42?junk&flag=1")
	require.NoError(t, err)
	assert.Equal(t, "/users/42?flag\n", out)
}

func TestParseThenFormat(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	state, _, err := run(t, "", "parse", "-c", cfg, "/search?q=a%20b")
	require.NoError(t, err)

	out, _, err := run(t, state, "format", "-c", cfg)
	require.NoError(t, err)
	assert.Equal(t, "/search?q=a%20b\n", out)

	file := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(file, []byte(state), 0644))
	out, _, err = run(t, "", "format", "-c", cfg, file)
	require.NoError(t, err)
	assert.Equal(t, "/search?q=a%20b\n", out)
}

func TestFormatErrors(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	_, _, err := run(t, "{nope", "format", "-c", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R141")

	_, _, err = run(t, `{"activeChild":"home"}`, "format", "-c", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R001")
	assert.ErrorIs(t, err, route.ErrMalformedState)
}

func TestArgsValidation(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	_, _, err := run(t, "", "parse", "-c", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R140")
}

func TestTree(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, _, err := run(t, "", "tree", "-c", cfg, "/search?q=go")
	require.NoError(t, err)
	assert.Contains(t, out, "ROUTE")
	assert.Contains(t, out, "users/*")
	assert.Contains(t, out, `q(string)="go"`)
	assert.Contains(t, out, "Active: / > search")
	assert.Contains(t, out, "URL: /search?q=go")

	out, _, err = run(t, "", "tree", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "URL: /home")
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "", "validate", "-c", writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (4 routes)")

	bad := `{"server": {"port": -1}, "store": {"kind": "redis"}}`
	_, _, err = run(t, "", "validate", "-c", writeConfig(t, bad))
	require.Error(t, err)

	var stderr bytes.Buffer
	printError(&stderr, err)
	assert.Contains(t, stderr.String(), "R102")
	assert.Contains(t, stderr.String(), "R103")
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	_, _, err := run(t, "", "parse", "-c", filepath.Join(t.TempDir(), "none.json"), "/")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	cfg := writeConfig(t, testConfig)
	_, _, err = run(t, "", "snapshot", "show", "-c", cfg, "nope")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestInit(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
		file string
	}{
		{"json", nil, config.JSONFileName},
		{"toml", []string{"--toml"}, config.TOMLFileName},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			out, _, err := run(t, "", append([]string{"init", dir}, tc.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, tc.file)

			path := filepath.Join(dir, tc.file)
			out, _, err = run(t, "", "normalize", "-c", path, "/users/3?flag=1")
			require.NoError(t, err)
			assert.Equal(t, "/users/3?flag\n", out)

			_, _, err = run(t, "", append([]string{"init", dir}, tc.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "R142")

			_, _, err = run(t, "", append([]string{"init", dir, "--force"}, tc.args...)...)
			require.NoError(t, err)
		})
	}
}

func TestSnapshotCommands(t *testing.T) {
	cfg := writeConfig(t, testConfig)

	out, _, err := run(t, "", "snapshot", "save", "-c", cfg, "/users/7?flag", "mine")
	require.NoError(t, err)
	assert.Equal(t, "mine\n", out)

	generated, _, err := run(t, "", "snapshot", "save", "-c", cfg, "/search?q=x")
	require.NoError(t, err)
	generated = strings.TrimSpace(generated)
	assert.NotEmpty(t, generated)

	out, _, err = run(t, "", "snapshot", "list", "-c", cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mine", generated}, strings.Fields(out))

	out, _, err = run(t, "", "snapshot", "show", "-c", cfg, "mine")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "URL: /users/7?flag\n"), out)

	_, _, err = run(t, "", "snapshot", "delete", "-c", cfg, "mine")
	require.NoError(t, err)

	_, _, err = run(t, "", "snapshot", "show", "-c", cfg, "mine")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R120")

	_, _, err = run(t, "", "snapshot", "save", "-c", cfg, "/", ".bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R121")
}

func TestBuildServer(t *testing.T) {
	cfgPath := writeConfig(t, testConfig)
	cfg, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}

	logger, err := newLogger(&bytes.Buffer{}, "debug", "json")
	require.NoError(t, err)

	srv, err := buildServer(cfg, &globalOptions{logger: logger})
	require.NoError(t, err)
	assert.Equal(t, "/home", srv.Router().URL())
	assert.Equal(t, "localhost:8080", srv.Config().Address)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "INFO", "json")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"k":"v"`)

	_, err = newLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
