package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	if args == nil {
		// nil makes cobra fall back to the test binary's own arguments
		args = []string{}
	}
	cmd.SetArgs(args)
	t.Cleanup(func() {
		// rootCmd is shared, so flag values leak between runs
		_ = versionCmd.Flags().Set("short", "false")
		_ = versionCmd.Flags().Set("json", "false")
	})
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Parable Studio API")
	assert.Contains(t, out, "v"+Version)
	assert.Contains(t, out, "Git Commit:")
	assert.Contains(t, out, "Platform:")
}

func TestVersionCommandShort(t *testing.T) {
	out, err := runRoot(t, "version", "-s")
	require.NoError(t, err)
	assert.Equal(t, "v"+Version, strings.TrimSpace(out))
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := runRoot(t, "version", "--json")
	require.NoError(t, err)

	var info buildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info), out)
	assert.Equal(t, "parable-studio", info.Name)
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.Contains(t, info.Platform, "/")
}

func TestVersionCommandRejectsArgs(t *testing.T) {
	_, err := runRoot(t, "version", "extra")
	assert.Error(t, err)
}
