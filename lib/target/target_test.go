package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayperf/regload/lib/config"
)

func TestTagRangeRoundRobin(t *testing.T) {
	r := TagRange{Start: 1, End: 5}

	want := []string{"1", "2", "3", "4", "5", "1"}
	for n, tag := range want {
		assert.Equal(t, tag, r.Tag(int64(n)), "n=%d", n)
	}
}

func TestTagRangeSingleTag(t *testing.T) {
	r := TagRange{Start: 7, End: 7}
	assert.Equal(t, 1, r.Size())
	assert.Equal(t, "7", r.Tag(0))
	assert.Equal(t, "7", r.Tag(12345))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		repo    string
		tags    TagRange
		wantErr bool
	}{
		{"valid", "quay.example.com/perf/load", TagRange{Start: 1, End: 5}, false},
		{"valid with port", "127.0.0.1:5000/perf/load", TagRange{Start: 1, End: 1}, false},
		{"inverted range", "quay.example.com/perf/load", TagRange{Start: 5, End: 1}, true},
		{"negative start", "quay.example.com/perf/load", TagRange{Start: -1, End: 1}, true},
		{"invalid repository", "quay.example.com/Perf/LOAD", TagRange{Start: 1, End: 1}, true},
		{"repository with tag", "quay.example.com/perf/load:7", TagRange{Start: 1, End: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.repo, tt.tags)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRef(t *testing.T) {
	tgt, err := New("quay.example.com/perf/load", TagRange{Start: 10, End: 12})
	require.NoError(t, err)

	assert.Equal(t, "quay.example.com/perf/load:10", tgt.Ref(0))
	assert.Equal(t, "quay.example.com/perf/load:12", tgt.Ref(2))
	assert.Equal(t, "quay.example.com/perf/load:10", tgt.Ref(3))
}

func TestRegistry(t *testing.T) {
	tgt, err := New("127.0.0.1:5000/perf/load", TagRange{Start: 1, End: 1})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5000", tgt.Registry())

	tgt, err = New("quay.example.com/perf/load", TagRange{Start: 1, End: 1})
	require.NoError(t, err)
	assert.Equal(t, "quay.example.com", tgt.Registry())
}

func TestResolvePrecedence(t *testing.T) {
	cfg := &config.Config{
		LoadRepo:   "quay.override.com/other/repo",
		QuayHost:   "quay.example.com",
		QuayOrg:    "perf",
		RepoPrefix: "load",
		TagStart:   1,
		TagEnd:     5,
	}

	tgt, err := Resolve(cfg, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "quay.override.com/other/repo", tgt.Repo, "LOAD_REPO wins")

	cfg.LoadRepo = ""
	tgt, err = Resolve(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "quay.example.com/perf/load", tgt.Repo, "prefix used when no repo path given")
	assert.Equal(t, TagRange{Start: 1, End: 5}, tgt.Tags)

	tgt, err = Resolve(cfg, "load-3")
	require.NoError(t, err)
	assert.Equal(t, "quay.example.com/perf/load-3", tgt.Repo, "positional repo path wins over prefix")
}
