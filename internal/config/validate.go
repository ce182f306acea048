package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validFormats = map[string]bool{"auto": true, "text": true, "json": true}

// Validate checks all configuration values and returns every error found,
// so users can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateURL("drive.base_url", cfg.Drive.BaseURL))
	errs = append(errs, validateURL("drive.upload_base_url", cfg.Drive.UploadBaseURL))

	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("logging.level: must be debug, info, warn, or error, got %q", cfg.Logging.Level))
	}

	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("logging.format: must be auto, text, or json, got %q", cfg.Logging.Format))
	}

	if cfg.Bridge.ListenAddr == "" {
		errs = append(errs, errors.New("bridge.listen_addr: must not be empty"))
	}

	if len(cfg.Auth.Scopes) == 0 {
		errs = append(errs, errors.New("auth.scopes: must list at least one OAuth scope"))
	}

	return errors.Join(errs...)
}

func validateURL(key, value string) error {
	if value == "" {
		return nil // empty selects the built-in endpoint
	}

	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s: not a valid URL: %q", key, value)
	}

	if strings.HasSuffix(parsed.Path, "/") {
		return fmt.Errorf("%s: must not end with a slash: %q", key, value)
	}

	return nil
}
