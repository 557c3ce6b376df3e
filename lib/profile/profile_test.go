package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayperf/regload/lib/config"
	"github.com/quayperf/regload/lib/target"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAndResolve(t *testing.T) {
	path := writeProfile(t, `
targets:
  - repo: quay.example.com/perf/load-1
  - repo: quay.example.com/perf/load-2
    start: 3
    end: 9
`)

	p, err := Load(path)
	require.NoError(t, err)
	require.Len(t, p.Targets, 2)

	targets, err := p.Resolve(target.TagRange{Start: 1, End: 5})
	require.NoError(t, err)

	assert.Equal(t, "quay.example.com/perf/load-1", targets[0].Repo)
	assert.Equal(t, target.TagRange{Start: 1, End: 5}, targets[0].Tags, "defaults applied")
	assert.Equal(t, target.TagRange{Start: 3, End: 9}, targets[1].Tags, "own range kept")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyProfile(t *testing.T) {
	path := writeProfile(t, "targets: []\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolveInvalidEntry(t *testing.T) {
	path := writeProfile(t, `
targets:
  - repo: quay.example.com/perf/load-1
    start: 9
    end: 3
`)
	p, err := Load(path)
	require.NoError(t, err)

	_, err = p.Resolve(target.TagRange{Start: 1, End: 1})
	assert.Error(t, err)
}

func TestTargetsPrefersProfile(t *testing.T) {
	path := writeProfile(t, "targets:\n  - repo: quay.example.com/perf/load-9\n")

	cfg := &config.Config{
		QuayHost:    "quay.example.com",
		QuayOrg:     "perf",
		RepoPrefix:  "load",
		TagStart:    1,
		TagEnd:      2,
		ProfilePath: path,
	}

	targets, err := Targets(cfg, "")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "quay.example.com/perf/load-9", targets[0].Repo)

	cfg.ProfilePath = ""
	targets, err = Targets(cfg, "load-1")
	require.NoError(t, err)
	assert.Equal(t, "quay.example.com/perf/load-1", targets[0].Repo)
}
