package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/autocheck/internal/schema"
)

// ValidateConfig checks raw YAML or JSON config data against the embedded
// config schema. Unknown keys are rejected so typos do not silently fall
// back to defaults.
func ValidateConfig(configData []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(configData, &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if raw == nil {
		return nil
	}
	res, err := schema.Validate(raw, schema.ConfigV1)
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("config validation failed: %s", res.Error())
	}
	return nil
}

// ValidateConfigFile reads and validates a config file.
func ValidateConfigFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- config path comes from the CLI or the config search path
	if err != nil {
		return fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err := ValidateConfig(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
