// Package engine invokes an external container engine binary (podman or
// docker) for the pull, build, tag and push units of work.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// probeOrder is the auto-detection order when no engine is forced.
var probeOrder = []string{"podman", "docker"}

// Engine wraps one container engine binary. All operations run the binary as
// a child process; cancelling the context kills the in-flight process.
type Engine struct {
	bin string
	log *slog.Logger
}

// Detect locates a usable container engine. A non-empty override names the
// binary to use; otherwise podman is preferred over docker. Returns
// ErrNoEngine when nothing is found on PATH.
func Detect(override string, log *slog.Logger) (*Engine, error) {
	if override != "" {
		path, err := exec.LookPath(override)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadEngine, override, err)
		}
		return &Engine{bin: path, log: log}, nil
	}

	for _, candidate := range probeOrder {
		if path, err := exec.LookPath(candidate); err == nil {
			return &Engine{bin: path, log: log}, nil
		}
	}
	return nil, ErrNoEngine
}

// Name returns the engine binary path.
func (e *Engine) Name() string {
	return e.bin
}

// Pull pulls an image reference.
func (e *Engine) Pull(ctx context.Context, ref string) error {
	return e.run(ctx, "pull", ref)
}

// Push pushes an image reference.
func (e *Engine) Push(ctx context.Context, ref string) error {
	return e.run(ctx, "push", ref)
}

// Tag retags a local image.
func (e *Engine) Tag(ctx context.Context, src, dst string) error {
	return e.run(ctx, "tag", src, dst)
}

// Build builds the context directory into an image tagged ref.
func (e *Engine) Build(ctx context.Context, dir, ref string) error {
	return e.run(ctx, "build", "-t", ref, dir)
}

// RemoveImage removes a local image. Used to keep push-load hosts from
// filling up with synthetic tags.
func (e *Engine) RemoveImage(ctx context.Context, ref string) error {
	return e.run(ctx, "rmi", ref)
}

func (e *Engine) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, e.bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", e.bin, args[0], ctx.Err())
		}
		return fmt.Errorf("%s %s: %w: %s", e.bin, args[0], err, bytes.TrimSpace(stderr.Bytes()))
	}

	if e.log != nil {
		e.log.Debug("engine command finished", "bin", e.bin, "op", args[0])
	}
	return nil
}
