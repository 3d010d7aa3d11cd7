// Package config loads the apiroll project configuration file.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
)

// DefaultPath is where apiroll looks for its configuration when no --config
// flag is given.
const DefaultPath = "apiroll.toml"

// Rollup configures one trimmed output artifact.
type Rollup struct {
	// Tier is the release tier the rollup is trimmed to: internal, alpha,
	// beta, or public.
	Tier string `toml:"tier"`

	// Out is the file path the rollup is written to.
	Out string `toml:"out"`
}

// Report configures the review-report artifact.
type Report struct {
	// Out is the file path of the approved report snapshot.
	Out string `toml:"out"`
}

// Config is the full apiroll project configuration.
type Config struct {
	// Package is the package name stamped into the report header.
	Package string `toml:"package"`

	// Entry is the declaration entry point the analysis starts from.
	Entry string `toml:"entry"`

	// Preapproved lists top-level declaration names treated as preapproved
	// even without an explicit doc tag: their bodies collapse to a stub at
	// every tier.
	Preapproved []string `toml:"preapproved"`

	Report  Report   `toml:"report"`
	Rollups []Rollup `toml:"rollup"`
}

// ReleaseTier parses the rollup's tier word.
func (r Rollup) ReleaseTier() (entity.ReleaseTag, error) {
	tier, ok := entity.ParseReleaseTag(r.Tier)
	if !ok {
		return entity.TagNone, errors.Wrapf(errors.ErrConfig, "unknown release tier %q", r.Tier)
	}
	return tier, nil
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrConfig, "no configuration at %s", path)
		}
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	if cfg.Package == "" {
		return nil, errors.Wrapf(errors.ErrConfig, "%s: package name is required", path)
	}
	if cfg.Entry == "" {
		return nil, errors.Wrapf(errors.ErrConfig, "%s: entry point is required", path)
	}
	for _, r := range cfg.Rollups {
		if _, err := r.ReleaseTier(); err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		if r.Out == "" {
			return nil, errors.Wrapf(errors.ErrConfig, "%s: rollup at tier %q has no output path", path, r.Tier)
		}
	}
	return &cfg, nil
}
