package testsupport

import (
	"path/filepath"
	"testing"

	"payflow/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Store.SpreadsheetID = "test-spreadsheet"
	cfg.Store.CredentialsJSON = "{}"
	cfg.Dedup.Dir = filepath.Join(base, "dedup")
	cfg.Logging.Dir = filepath.Join(base, "logs")
	cfg.Gateway.Bind = "127.0.0.1:0"
	return &cfg
}
