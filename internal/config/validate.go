package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (expected sqlite, file, or memory)", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return errors.New("storage.key must be set")
	}
	switch c.Storage.CorruptPolicy {
	case CorruptPolicyReset, CorruptPolicyFail:
	default:
		return fmt.Errorf("storage.corrupt_policy: unsupported value %q (expected reset or fail)", c.Storage.CorruptPolicy)
	}
	if c.Storage.LockTimeoutSeconds < 0 {
		return errors.New("storage.lock_timeout_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
