package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeEngine drops an executable shell script named bin into dir.
func writeFakeEngine(t *testing.T, dir, bin, script string) {
	t.Helper()
	path := filepath.Join(dir, bin)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
}

func TestDetectPrefersPodman(t *testing.T) {
	dir := t.TempDir()
	writeFakeEngine(t, dir, "podman", "exit 0\n")
	writeFakeEngine(t, dir, "docker", "exit 0\n")
	t.Setenv("PATH", dir)

	eng, err := Detect("", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(eng.Name(), "/podman"), "got %s", eng.Name())
}

func TestDetectFallsBackToDocker(t *testing.T) {
	dir := t.TempDir()
	writeFakeEngine(t, dir, "docker", "exit 0\n")
	t.Setenv("PATH", dir)

	eng, err := Detect("", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(eng.Name(), "/docker"), "got %s", eng.Name())
}

func TestDetectNoEngine(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := Detect("", nil)
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestDetectOverride(t *testing.T) {
	dir := t.TempDir()
	writeFakeEngine(t, dir, "nerdctl", "exit 0\n")
	t.Setenv("PATH", dir)

	eng, err := Detect("nerdctl", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(eng.Name(), "/nerdctl"))

	_, err = Detect("no-such-engine", nil)
	assert.ErrorIs(t, err, ErrBadEngine)
}

func TestPullSuccess(t *testing.T) {
	dir := t.TempDir()
	writeFakeEngine(t, dir, "podman", "exit 0\n")
	t.Setenv("PATH", dir)

	eng, err := Detect("", nil)
	require.NoError(t, err)
	assert.NoError(t, eng.Pull(context.Background(), "quay.example.com/perf/load:1"))
}

func TestPullFailureIncludesStderr(t *testing.T) {
	dir := t.TempDir()
	writeFakeEngine(t, dir, "podman", "echo manifest unknown >&2\nexit 125\n")
	t.Setenv("PATH", dir)

	eng, err := Detect("", nil)
	require.NoError(t, err)

	err = eng.Pull(context.Background(), "quay.example.com/perf/load:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest unknown")
}

func TestRunKilledOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeFakeEngine(t, dir, "podman", "sleep 30\n")
	t.Setenv("PATH", dir)

	eng, err := Detect("", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Pull(ctx, "quay.example.com/perf/load:1") }()

	cancel()
	err = <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteBuildContext(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteBuildContext(dir, 3, 2048))

	data, err := os.ReadFile(filepath.Join(dir, "Containerfile"))
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "FROM scratch\n"))
	assert.Equal(t, 3, strings.Count(content, "COPY "))

	for i := 0; i < 3; i++ {
		info, err := os.Stat(filepath.Join(dir, fmt.Sprintf("layer-%d", i)))
		require.NoError(t, err)
		assert.Equal(t, int64(2048), info.Size())
	}
}

func TestWriteBuildContextMinimumOneLayer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteBuildContext(dir, 0, 16))

	_, err := os.Stat(filepath.Join(dir, "layer-0"))
	assert.NoError(t, err)
}
