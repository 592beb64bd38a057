package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, file string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCmd(out)
	cmd.SetArgs(append([]string{"--storage", "file", "--file", file, "--seed", "5"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPairsctlWorkflow(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pairs.yaml")

	steps := [][]string{
		{"sections", "add", "S1", "--zoom", "123"},
		{"students", "add", "Ada", "Grace", "Linus", "Margaret", "-s", "S1"},
		{"teams", "add", "T1", "T2"},
	}
	for _, step := range steps {
		_, err := run(t, file, step...)
		require.NoError(t, err, strings.Join(step, " "))
	}

	out, err := run(t, file, "days", "add")
	require.NoError(t, err)
	assert.Equal(t, "added day 0\n", out)

	out, err = run(t, file, "shuffle", "0", "-s", "S1")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "pair"))

	out, err = run(t, file, "days", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "DAY")

	out, err = run(t, file, "export", "0")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Section,Zoom,Team,Kind,Primary,Secondary", lines[0])
}

func TestPairsctlErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pairs.yaml")

	_, err := run(t, file, "days", "show", "x")
	assert.Error(t, err)

	_, err = run(t, file, "days", "show", "0")
	assert.Error(t, err)

	_, err = run(t, file, "shuffle", "0")
	assert.Error(t, err)
}
