package utils

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the optional YAML configuration of the tool.
type Config struct {
	// IgnorePackages lists package path prefixes whose functions are not
	// checked.
	IgnorePackages []string `yaml:"ignore-packages"`
	// Lockers lists additional named types ("path/to/pkg.Type") honored as
	// locks even without the usual Lock/Unlock shape.
	Lockers []string `yaml:"lockers"`
}

// LoadConfig reads the YAML configuration at path. An empty path yields the
// zero configuration.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading configuration %s", path)
	}
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing configuration %s", path)
	}
	return cfg, nil
}
