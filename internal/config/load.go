package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Drive: DriveConfig{
			DefaultDescription: "Saved by drivebridge",
			DefaultMimeType:    "text/plain",
			DefaultContentType: "text/plain",
		},
		Auth: AuthConfig{
			Scopes: []string{"https://www.googleapis.com/auth/drive.file"},
		},
		Bridge: BridgeConfig{
			ListenAddr: "127.0.0.1:7365",
		},
		Watch: WatchConfig{
			SkipDotfiles: true,
			SkipSuffixes: []string{".tmp", ".part", ".swp"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// DefaultPath returns the platform config file location
// (e.g. ~/.config/drivebridge/config.toml on Linux).
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving user config dir: %w", err)
	}

	return filepath.Join(base, "drivebridge", "config.toml"), nil
}

// DefaultTokenPath returns where the OAuth token is stored when the
// config does not say otherwise.
func DefaultTokenPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving user config dir: %w", err)
	}

	return filepath.Join(base, "drivebridge", "token.json"), nil
}

// Load resolves the effective configuration: defaults, then the TOML
// file at path (a missing file is fine when the path was not explicitly
// given), then environment overrides, then validation. explicit marks a
// user-supplied --config path, whose absence is an error.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}

		path = defaultPath
	}

	meta, err := toml.DecodeFile(path, cfg)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		if explicit {
			return nil, fmt.Errorf("config: %s does not exist", path)
		}
	case err != nil:
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	default:
		warnUnknownKeys(meta, path)
	}

	applyEnv(cfg)

	if cfg.Auth.TokenPath == "" {
		tokenPath, err := DefaultTokenPath()
		if err != nil {
			return nil, err
		}

		cfg.Auth.TokenPath = tokenPath
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides config values from DRIVEBRIDGE_* environment
// variables. Env wins over the file, CLI flags win over env.
func applyEnv(cfg *Config) {
	for env, target := range map[string]*string{
		"DRIVEBRIDGE_BASE_URL":        &cfg.Drive.BaseURL,
		"DRIVEBRIDGE_UPLOAD_BASE_URL": &cfg.Drive.UploadBaseURL,
		"DRIVEBRIDGE_CLIENT_ID":       &cfg.Auth.ClientID,
		"DRIVEBRIDGE_CLIENT_SECRET":   &cfg.Auth.ClientSecret,
		"DRIVEBRIDGE_TOKEN_PATH":      &cfg.Auth.TokenPath,
		"DRIVEBRIDGE_LISTEN_ADDR":     &cfg.Bridge.ListenAddr,
		"DRIVEBRIDGE_LOG_LEVEL":       &cfg.Logging.Level,
	} {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}
}

// warnUnknownKeys reports config file keys this version does not know,
// catching typos like "defualt_mime_type".
func warnUnknownKeys(meta toml.MetaData, path string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}

	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}

	fmt.Fprintf(os.Stderr, "warning: unknown keys in %s: %s\n", path, strings.Join(keys, ", "))
}
