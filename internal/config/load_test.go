package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	// An empty file leaves every default in place.
	cfg, err := Load(writeConfig(t, ""), true)
	require.NoError(t, err)

	assert.Equal(t, "Saved by drivebridge", cfg.Drive.DefaultDescription)
	assert.Equal(t, "text/plain", cfg.Drive.DefaultMimeType)
	assert.Equal(t, "text/plain", cfg.Drive.DefaultContentType)
	assert.Equal(t, "127.0.0.1:7365", cfg.Bridge.ListenAddr)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/drive.file"}, cfg.Auth.Scopes)
	assert.True(t, cfg.Watch.SkipDotfiles)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Logging.Format)
	assert.NotEmpty(t, cfg.Auth.TokenPath)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[drive]
base_url = "https://drive.example.com/api/v3"
default_mime_type = "text/markdown"

[auth]
client_id = "client-123"
token_path = "/tmp/tok.json"

[bridge]
listen_addr = "127.0.0.1:9000"

[logging]
level = "debug"
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "https://drive.example.com/api/v3", cfg.Drive.BaseURL)
	assert.Equal(t, "text/markdown", cfg.Drive.DefaultMimeType)
	// Untouched keys keep their defaults.
	assert.Equal(t, "text/plain", cfg.Drive.DefaultContentType)
	assert.Equal(t, "client-123", cfg.Auth.ClientID)
	assert.Equal(t, "/tmp/tok.json", cfg.Auth.TokenPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Bridge.ListenAddr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[auth]
client_id = "from-file"
`)

	t.Setenv("DRIVEBRIDGE_CLIENT_ID", "from-env")
	t.Setenv("DRIVEBRIDGE_LOG_LEVEL", "warn")

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.ClientID)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_ExplicitMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoad_ImplicitMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"), false)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "not = [valid"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Drive.BaseURL = "not a url"
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"
	cfg.Bridge.ListenAddr = ""
	cfg.Auth.Scopes = nil

	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "drive.base_url")
	assert.Contains(t, msg, "logging.level")
	assert.Contains(t, msg, "logging.format")
	assert.Contains(t, msg, "bridge.listen_addr")
	assert.Contains(t, msg, "auth.scopes")
}

func TestValidate_URLRules(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"empty selects builtin", "", false},
		{"https base", "https://www.googleapis.com/drive/v3", false},
		{"trailing slash", "https://www.googleapis.com/drive/v3/", true},
		{"no scheme", "www.googleapis.com/drive/v3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Drive.BaseURL = tt.url

			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_UnknownKeysAreNotFatal(t *testing.T) {
	path := writeConfig(t, `
[drive]
defualt_mime_type = "oops"
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", cfg.Drive.DefaultMimeType)
}
