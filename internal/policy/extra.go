package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExtraPattern is a user-supplied blacklist entry loaded from YAML.
type ExtraPattern struct {
	ID      string `yaml:"id"`
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason"`
}

type extraFile struct {
	Rules []ExtraPattern `yaml:"rules"`
}

// Load builds a Policy from the built-in rules plus the rules in the given
// YAML file. An empty path or a missing file yields the built-in policy.
func Load(path string) (*Policy, error) {
	if path == "" {
		return NewDefault(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}

	var f extraFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("policy: parse %s: %w", path, err)
	}

	return New(f.Rules)
}
