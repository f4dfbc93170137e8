package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theanh9911/agno-console/internal/config"
)

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String(), runErr
}

func TestConfigInit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), ".agno.yaml")

	out, err := captureStdout(t, func() error {
		return configInitCmd.RunE(configInitCmd, []string{path})
	})
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ws_url:")

	// A second init must refuse to overwrite.
	_, err = captureStdout(t, func() error {
		return configInitCmd.RunE(configInitCmd, []string{path})
	})
	assert.Error(t, err)
}

func TestConfigPath_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".agno.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	cfgFile = path
	defer func() { cfgFile = "" }()

	out, err := captureStdout(t, func() error {
		return configPathCmd.RunE(configPathCmd, nil)
	})
	require.NoError(t, err)
	assert.Contains(t, out, path)
}

func TestConfigPath_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfgFile = ""

	out, err := captureStdout(t, func() error {
		return configPathCmd.RunE(configPathCmd, nil)
	})
	require.NoError(t, err)
	assert.Contains(t, out, "no config file found")
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc1234", "2026-01-01")

	out, _ := captureStdout(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	assert.Contains(t, out, "agno-console 1.2.3")
	assert.Contains(t, out, "abc1234")
}

func TestDefaultUserConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := config.DefaultUserConfigPath()
	assert.Equal(t, filepath.Join(home, ".config", "agno-console", ".agno.yaml"), got)
}
