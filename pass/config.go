package pass

import (
	"io"

	"github.com/nickng/boundsopt/internal/logging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the pass pipeline configuration.
type Config struct {
	Passes   []string `yaml:"passes"`
	Verify   bool     `yaml:"verify"`
	Debug    bool     `yaml:"debug"`
	LogFiles []string `yaml:"log_files"`
}

// DefaultPass is the pass run when no pipeline is configured.
const DefaultPass = "bounds-check-opti"

// DefaultConfig returns the configuration running DefaultPass with
// verification.
func DefaultConfig() *Config {
	return &Config{
		Passes: []string{DefaultPass},
		Verify: true,
	}
}

// LoadConfig reads a YAML configuration. Fields absent from r keep their
// default values.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "cannot decode pass config")
	}
	return cfg, nil
}

// Logger returns the logger selected by c: a debug level logger if Debug is
// set, a logger writing to LogFiles if any are given, and a no-op logger
// otherwise.
func (c *Config) Logger() *logging.Logger {
	switch {
	case c.Debug:
		return logging.NewDevelopmentLogger(c.LogFiles...)
	case len(c.LogFiles) > 0:
		return logging.NewFileLogger(c.LogFiles...)
	}
	return logging.Nop()
}
