// Package config implements TOML configuration loading for drivebridge
// with a three-layer override chain: built-in defaults, then the config
// file, then DRIVEBRIDGE_* environment variables. CLI flags apply on top
// at the command layer.
package config

// Config is the top-level structure parsed from the TOML file.
type Config struct {
	Drive   DriveConfig   `toml:"drive"`
	Auth    AuthConfig    `toml:"auth"`
	Bridge  BridgeConfig  `toml:"bridge"`
	Watch   WatchConfig   `toml:"watch"`
	Logging LoggingConfig `toml:"logging"`
}

// DriveConfig controls the Drive endpoints and the defaults applied when
// a save request omits metadata.
type DriveConfig struct {
	BaseURL            string `toml:"base_url"`
	UploadBaseURL      string `toml:"upload_base_url"`
	DefaultDescription string `toml:"default_description"`
	DefaultMimeType    string `toml:"default_mime_type"`
	DefaultContentType string `toml:"default_content_type"`
}

// AuthConfig identifies the OAuth2 client and where its token is kept.
// ClientSecret may be empty for public (PKCE-only) clients.
type AuthConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	TokenPath    string   `toml:"token_path"`
	Scopes       []string `toml:"scopes"`
}

// BridgeConfig controls the websocket bridge the desktop application
// connects to.
type BridgeConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// WatchConfig controls the directory-export watcher.
type WatchConfig struct {
	Dir          string   `toml:"dir"`
	SkipDotfiles bool     `toml:"skip_dotfiles"`
	SkipSuffixes []string `toml:"skip_suffixes"`
}

// LoggingConfig controls log output: level and format ("text", "json",
// or "auto" to pick by terminal).
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}
