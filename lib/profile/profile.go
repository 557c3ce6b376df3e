// Package profile loads optional multi-target load profiles from YAML.
package profile

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/samber/lo"

	"github.com/quayperf/regload/lib/config"
	"github.com/quayperf/regload/lib/target"
)

// Targets resolves the target list for a run: the profile file when
// LOAD_PROFILE is set, otherwise the single target derived from environment
// and the optional positional repo path.
func Targets(cfg *config.Config, repoPath string) ([]target.Target, error) {
	defaults := target.TagRange{Start: cfg.TagStart, End: cfg.TagEnd}

	if cfg.ProfilePath != "" {
		p, err := Load(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		return p.Resolve(defaults)
	}

	t, err := target.Resolve(cfg, repoPath)
	if err != nil {
		return nil, err
	}
	return []target.Target{t}, nil
}

// Entry describes one repository in a load profile. Start and End default to
// the enclosing run's tag range when zero.
type Entry struct {
	Repo  string `json:"repo"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}

// Profile is a YAML-defined list of repositories a run cycles through.
type Profile struct {
	Targets []Entry `json:"targets"`
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if len(p.Targets) == 0 {
		return nil, fmt.Errorf("profile %s lists no targets", path)
	}
	return &p, nil
}

// Resolve validates every entry and converts it to a target, applying the
// default tag range to entries that do not set their own.
func (p *Profile) Resolve(defaults target.TagRange) ([]target.Target, error) {
	ranges := lo.Map(p.Targets, func(e Entry, _ int) target.TagRange {
		if e.Start == 0 && e.End == 0 {
			return defaults
		}
		return target.TagRange{Start: e.Start, End: e.End}
	})

	targets := make([]target.Target, 0, len(p.Targets))
	for i, e := range p.Targets {
		t, err := target.New(e.Repo, ranges[i])
		if err != nil {
			return nil, fmt.Errorf("profile target %d: %w", i, err)
		}
		targets = append(targets, t)
	}
	return targets, nil
}
