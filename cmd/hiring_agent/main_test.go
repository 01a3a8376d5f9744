package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-agent/internal/config"
	"github.com/jonathan/hiring-agent/internal/pipeline"
)

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer

	logger, err := newLogger(&buf, "json", false)
	require.NoError(t, err)
	logger.Info("hello", "email", "ada@example.com")
	assert.Contains(t, buf.String(), `"email":"ada@example.com"`)

	buf.Reset()
	logger, err = newLogger(&buf, "text", false)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestNewLogger_Verbose(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "", true)
	require.NoError(t, err)

	logger.Debug("detail")
	assert.Contains(t, buf.String(), "msg=detail")
}

func TestNewLogger_UnknownFormat(t *testing.T) {
	_, err := newLogger(&bytes.Buffer{}, "xml", false)
	assert.Error(t, err)
}

func TestLoadConfig_MergesDefaultsAndSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hiring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
company: Oxide
airtable_base_id: appXYZ
roles:
  - name: Software Engineer
    sheet_id: sheet-1
officer: {name: Officer, email: officer@example.com}
hr: {name: HR, email: hr@example.com}
`), 0o644))
	t.Setenv("DATABASE_URL", "postgres://localhost/hiring")
	t.Setenv("WEBHOOK_TOKEN", "secret")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Oxide", cfg.Company)
	assert.Equal(t, config.Defaults().Schedule, cfg.Schedule)
	assert.Equal(t, config.Defaults().SheetRange, cfg.SheetRange)
	assert.Equal(t, "postgres://localhost/hiring", cfg.Secrets.DatabaseURL)
	assert.Equal(t, "secret", cfg.Secrets.WebhookToken)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hiring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles: []\n"), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to load config")
}

func TestNewApp_RequiresDatabase(t *testing.T) {
	cfg := &config.Config{Company: "Oxide", AirtableBaseID: "appXYZ"}

	_, err := newApp(context.Background(), cfg, appOptions{}, slog.Default())
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestNewApp_RequiresWorkspaceBase(t *testing.T) {
	cfg := &config.Config{Company: "Oxide"}
	cfg.Secrets.DatabaseURL = "postgres://localhost/hiring"
	cfg.Secrets.AirtableAPIKey = "key"

	_, err := newApp(context.Background(), cfg, appOptions{}, slog.Default())
	assert.ErrorContains(t, err, "airtable_base_id")
}

func TestSheetsFromRoles(t *testing.T) {
	got := sheetsFromRoles([]config.Role{
		{Name: "Software Engineer", SheetID: "sheet-1", CompanyID: 2},
		{Name: "Operations Manager", SheetID: "sheet-2"},
	})

	assert.Equal(t, []pipeline.Sheet{
		{Role: "Software Engineer", SheetID: "sheet-1", CompanyID: 2},
		{Role: "Operations Manager", SheetID: "sheet-2"},
	}, got)
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "text", false)
	require.NoError(t, err)

	l := cronLogger{logger}
	l.Info("skip", "now", "later")
	assert.Empty(t, buf.String())

	l.Error(errors.New("panic in job"), "job failed")
	assert.Contains(t, buf.String(), "cron: job failed")
	assert.Contains(t, buf.String(), "panic in job")
}

func TestImportXLSX_RequiresRole(t *testing.T) {
	importRole = ""
	rootCmd.SetArgs([]string{"import-xlsx", "responses.xlsx"})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetOut(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "--role is required")
}
