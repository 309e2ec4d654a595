// Package config decodes the small YAML document that configures one
// verification run: where the solver binary lives, how long to let it run,
// which function to target, and how to format results. This is ambient
// configuration, not verifier semantics.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the decoded shape of a boundedverify.yaml file.
type Config struct {
	Solver struct {
		// Path to the SMT-LIB2-speaking solver binary, e.g. "z3".
		Path string `yaml:"path"`
		// Timeout bounds a single check-sat call; "0s" means unbounded.
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"solver"`

	// TargetPrefix is matched by prefix against a module's function names
	// to select which ones to verify; a run may still override this via a
	// CLI flag.
	TargetPrefix string `yaml:"target_prefix"`

	// Format is the CLI's report rendering: "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present: z3 on
// PATH, a five-second solver timeout, text output.
func Default() *Config {
	c := &Config{Format: "text"}
	c.Solver.Path = "z3"
	c.Solver.Timeout = 5 * time.Second
	return c
}

// Load reads and decodes path, falling back to Default for any field the
// document leaves unset.
func Load(path string) (*Config, error) {
	c := Default()
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(body, c); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return c, nil
}
