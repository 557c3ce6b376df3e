package seed

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	ggcr "github.com/google/go-containerregistry/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayperf/regload/lib/registry"
	"github.com/quayperf/regload/lib/target"
)

func TestSeederPushesOneImagePerTag(t *testing.T) {
	srv := httptest.NewServer(ggcr.New())
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	reg, err := registry.New(host, true)
	require.NoError(t, err)

	tgt, err := target.New(host+"/perf/load", target.TagRange{Start: 1, End: 3})
	require.NoError(t, err)

	seeder := New(reg, Options{
		Target:    tgt,
		Layers:    2,
		LayerSize: 512,
	})

	pushed, err := seeder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, pushed)

	tags, err := reg.ListTags(context.Background(), tgt.Repo)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, tags)
}

func TestSeederCountCappedToRange(t *testing.T) {
	srv := httptest.NewServer(ggcr.New())
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	reg, err := registry.New(host, true)
	require.NoError(t, err)

	tgt, err := target.New(host+"/perf/load", target.TagRange{Start: 1, End: 2})
	require.NoError(t, err)

	seeder := New(reg, Options{Target: tgt, Count: 10, Layers: 1, LayerSize: 64})

	pushed, err := seeder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pushed, "count capped at tag range size")
}

func TestSeederHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(ggcr.New())
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	reg, err := registry.New(host, true)
	require.NoError(t, err)

	tgt, err := target.New(host+"/perf/load", target.TagRange{Start: 1, End: 5})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seeder := New(reg, Options{Target: tgt, Layers: 1, LayerSize: 64})
	pushed, err := seeder.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, pushed)
}
