package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeApprovals()
	c.normalizeNotifications()
	c.normalizeGateway()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.SpreadsheetID = strings.TrimSpace(c.Store.SpreadsheetID)
	if c.Store.SpreadsheetID == "" {
		if value, ok := os.LookupEnv("PAYFLOW_SPREADSHEET_ID"); ok {
			c.Store.SpreadsheetID = strings.TrimSpace(value)
		}
	}
	if c.Store.CredentialsJSON == "" {
		if value, ok := os.LookupEnv("PAYFLOW_CREDENTIALS_JSON"); ok {
			c.Store.CredentialsJSON = value
		}
	}
	var err error
	if c.Store.CredentialsFile, err = expandPath(strings.TrimSpace(c.Store.CredentialsFile)); err != nil {
		return fmt.Errorf("store.credentials_file: %w", err)
	}
	c.Store.RequestsTable = strings.TrimSpace(c.Store.RequestsTable)
	if c.Store.RequestsTable == "" {
		c.Store.RequestsTable = defaultRequestsTable
	}
	c.Store.CodePrefix = strings.ToUpper(strings.TrimSpace(c.Store.CodePrefix))
	if c.Store.CodePrefix == "" {
		c.Store.CodePrefix = defaultCodePrefix
	}
	return nil
}

func (c *Config) normalizeApprovals() {
	c.Approvals.ApproverRole = strings.TrimSpace(c.Approvals.ApproverRole)
	if c.Approvals.ApproverRole == "" {
		c.Approvals.ApproverRole = defaultApproverRole
	}
	if c.Approvals.MaxEvidence <= 0 {
		c.Approvals.MaxEvidence = defaultMaxEvidence
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.ReviewWebhook = strings.TrimSpace(c.Notifications.ReviewWebhook)
	c.Notifications.OriginWebhook = strings.TrimSpace(c.Notifications.OriginWebhook)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeGateway() {
	c.Gateway.Bind = strings.TrimSpace(c.Gateway.Bind)
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = defaultGatewayBind
	}
	c.Gateway.Token = strings.TrimSpace(c.Gateway.Token)
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Dedup.Dir, err = expandPath(c.Dedup.Dir); err != nil {
		return fmt.Errorf("dedup.dir: %w", err)
	}
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
