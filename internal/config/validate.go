package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.SpreadsheetID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/payflow/config.toml"
		}
		return fmt.Errorf("store.spreadsheet_id is required. Set PAYFLOW_SPREADSHEET_ID env var or edit %s (create with 'payflow config init')", defaultPath)
	}
	if c.Store.CredentialsFile == "" && strings.TrimSpace(c.Store.CredentialsJSON) == "" {
		return errors.New("store.credentials_file or store.credentials_json must be set")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	for name, raw := range map[string]string{
		"notifications.review_webhook": c.Notifications.ReviewWebhook,
		"notifications.origin_webhook": c.Notifications.OriginWebhook,
	} {
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return fmt.Errorf("%s must be an http(s) URL", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
