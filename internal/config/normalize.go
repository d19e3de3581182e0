package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeExport()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.Mode = strings.ToLower(strings.TrimSpace(c.Export.Mode))
	if c.Export.Mode == "" {
		c.Export.Mode = defaultExportMode
	}
	c.Export.ImageFormat = strings.ToLower(strings.TrimSpace(c.Export.ImageFormat))
	if c.Export.ImageFormat == "" {
		c.Export.ImageFormat = defaultImageFormat
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
