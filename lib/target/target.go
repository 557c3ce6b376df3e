// Package target resolves and represents the image repositories a load run
// operates against.
package target

import (
	"fmt"
	"strconv"

	"github.com/distribution/reference"

	"github.com/quayperf/regload/lib/config"
)

// TagRange is an inclusive [Start,End] set of numeric tags cycled round-robin.
type TagRange struct {
	Start int
	End   int
}

// Size returns the number of tags in the range.
func (r TagRange) Size() int {
	return r.End - r.Start + 1
}

// Tag returns the tag for the nth operation: Start + (n mod Size).
func (r TagRange) Tag(n int64) string {
	return strconv.Itoa(r.Start + int(n%int64(r.Size())))
}

// Target is a fully-qualified image repository plus the tag range to cycle.
// Immutable once resolved from configuration.
type Target struct {
	// Repo is host/namespace/repository without a tag.
	Repo string
	Tags TagRange
}

// Ref returns the image reference for the nth operation, e.g.
// "quay.example.com/perf/load-1:3".
func (t Target) Ref(n int64) string {
	return t.Repo + ":" + t.Tags.Tag(n)
}

// Registry returns the registry host of the target repository.
func (t Target) Registry() string {
	named, err := reference.ParseNormalizedNamed(t.Repo)
	if err != nil {
		return ""
	}
	return reference.Domain(named)
}

// New validates a repository string and tag range and builds a Target.
func New(repo string, tags TagRange) (Target, error) {
	if tags.Start < 0 || tags.End < tags.Start {
		return Target{}, fmt.Errorf("invalid tag range [%d,%d]", tags.Start, tags.End)
	}
	named, err := reference.ParseNormalizedNamed(repo)
	if err != nil {
		return Target{}, fmt.Errorf("parse repository %q: %w", repo, err)
	}
	if _, ok := named.(reference.Tagged); ok {
		return Target{}, fmt.Errorf("repository %q must not carry a tag", repo)
	}
	return Target{Repo: repo, Tags: tags}, nil
}

// Resolve builds the target for a run from configuration. LOAD_REPO, when
// set, wins. Otherwise the repository is QUAY_HOST/QUAY_ORG/<name>, where
// name is the positional repo path argument or, if empty, PULL_REPO_PREFIX.
func Resolve(cfg *config.Config, repoPath string) (Target, error) {
	tags := TagRange{Start: cfg.TagStart, End: cfg.TagEnd}

	if cfg.LoadRepo != "" {
		return New(cfg.LoadRepo, tags)
	}

	name := repoPath
	if name == "" {
		name = cfg.RepoPrefix
	}
	return New(fmt.Sprintf("%s/%s/%s", cfg.QuayHost, cfg.QuayOrg, name), tags)
}
