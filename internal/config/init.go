package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureConfigExists writes the config template to configPath unless a file
// is already there. The file may end up holding credentials, so it is only
// readable by its owner.
func EnsureConfigExists(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config template: %w", err)
	}

	return nil
}
