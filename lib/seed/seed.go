// Package seed pre-populates load repositories with synthetic random-layer
// images pushed directly from this process, so pull-load has something to
// pull without requiring a container engine on the seeding host.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	specsv1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/quayperf/regload/lib/registry"
	"github.com/quayperf/regload/lib/target"
)

// Options configures a seeding pass.
type Options struct {
	Target target.Target
	// Count of images to push. Zero or anything past the tag range size is
	// capped to the range size; one image per tag.
	Count     int
	Layers    int
	LayerSize int64
	Logger    *slog.Logger
}

// Seeder pushes synthetic images to one target repository.
type Seeder struct {
	reg  *registry.Client
	opts Options
}

// New creates a Seeder.
func New(reg *registry.Client, opts Options) *Seeder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Layers < 1 {
		opts.Layers = 1
	}
	return &Seeder{reg: reg, opts: opts}
}

// Run pushes the images and returns how many were pushed. On error the count
// reflects the pushes that completed before the failure.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	count := s.opts.Count
	if size := s.opts.Target.Tags.Size(); count <= 0 || count > size {
		count = size
	}

	for n := 0; n < count; n++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		refStr := s.opts.Target.Ref(int64(n))
		if err := s.pushOne(ctx, refStr); err != nil {
			return n, err
		}
		s.opts.Logger.Info("seeded image",
			"ref", refStr,
			"layers", s.opts.Layers,
			"layer_size", s.opts.LayerSize,
		)
	}
	return count, nil
}

func (s *Seeder) pushOne(ctx context.Context, refStr string) error {
	img, err := random.Image(s.opts.LayerSize, int64(s.opts.Layers))
	if err != nil {
		return fmt.Errorf("generate image: %w", err)
	}

	annotated, ok := mutate.Annotations(img, map[string]string{
		specsv1.AnnotationCreated: time.Now().UTC().Format(time.RFC3339),
	}).(v1.Image)
	if !ok {
		return fmt.Errorf("annotate image %s: unexpected manifest type", refStr)
	}

	ref, err := s.reg.ParseReference(refStr)
	if err != nil {
		return err
	}

	if err := remote.Write(ref, annotated, s.reg.Options(ctx)...); err != nil {
		return fmt.Errorf("push %s: %w", refStr, err)
	}
	return nil
}
