package config

import (
	"errors"
	"fmt"
	"strings"
)

var exportModes = map[string]struct{}{
	"default":    {},
	"hide":       {},
	"remove":     {},
	"remove-all": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateExport() error {
	if _, ok := exportModes[c.Export.Mode]; !ok {
		return fmt.Errorf("export.mode must be one of default, hide, remove, remove-all (got %q)", c.Export.Mode)
	}
	switch c.Export.ImageFormat {
	case "png", "webp":
	default:
		return fmt.Errorf("export.image_format must be png or webp (got %q)", c.Export.ImageFormat)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
