package main

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sessiongate "github.com/sessiongate-io/sessiongate"
)

// serverConfig is the full sessiond configuration: process-level settings
// plus the embedded gateway configuration and the static user table.
type serverConfig struct {
	Listen          string        `koanf:"listen"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	Log struct {
		Format string `koanf:"format"`
		Level  string `koanf:"level"`
	} `koanf:"log"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Gateway gatewayConfig `koanf:"gateway"`

	Users []userEntry `koanf:"users"`
}

// gatewayConfig mirrors sessiongate.Config with koanf tags so it can come
// from YAML and flags.
type gatewayConfig struct {
	Cookie struct {
		TTL           time.Duration `koanf:"ttl"`
		Autologin     bool          `koanf:"autologin"`
		ForceHTTPS    bool          `koanf:"force_https"`
		HashSource    string        `koanf:"hash_source"`
		HashUserAgent bool          `koanf:"hash_user_agent"`
	} `koanf:"cookie"`

	IPCheck struct {
		Enabled   bool     `koanf:"enabled"`
		AllowList []string `koanf:"allow_list"`
	} `koanf:"ip_check"`

	HTTPAuth struct {
		DefaultClient  string `koanf:"default_client"`
		DefaultVersion string `koanf:"default_version"`
	} `koanf:"http_auth"`

	Redirect struct {
		UIWebPath string `koanf:"ui_web_path"`
	} `koanf:"redirect"`

	Registry struct {
		KeyPrefix       string        `koanf:"key_prefix"`
		SessionLifetime time.Duration `koanf:"session_lifetime"`
		RandomTokenTTL  time.Duration `koanf:"random_token_ttl"`
	} `koanf:"registry"`

	Audit struct {
		Enabled    bool `koanf:"enabled"`
		BufferSize int  `koanf:"buffer_size"`
	} `koanf:"audit"`
}

// userEntry is one row of the static credential table. Password is an
// argon2id PHC string, never plaintext.
type userEntry struct {
	Login     string `koanf:"login"`
	Password  string `koanf:"password"`
	ContextID int    `koanf:"context_id"`
	UserID    int    `koanf:"user_id"`
}

func defaultServerConfig() serverConfig {
	var cfg serverConfig
	cfg.Listen = ":8080"
	cfg.ShutdownTimeout = 10 * time.Second
	cfg.Log.Format = "json"
	cfg.Log.Level = "info"
	cfg.Redis.Addr = "localhost:6379"
	return cfg
}

// loadConfig merges, in ascending precedence: defaults, the YAML file (when
// given), and command-line flags.
func loadConfig(path string, flags *pflag.FlagSet) (serverConfig, error) {
	cfg := defaultServerConfig()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, fmt.Errorf("load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// gatewayConfigFor converts the file-backed gateway section into the
// library's Config, starting from library defaults so unset fields keep
// their documented values.
func gatewayConfigFor(gc gatewayConfig) sessiongate.Config {
	cfg := sessiongate.DefaultConfig()

	if gc.Cookie.TTL > 0 {
		cfg.Cookie.TTL = gc.Cookie.TTL
	}
	cfg.Cookie.Autologin = gc.Cookie.Autologin
	cfg.Cookie.ForceHTTPS = gc.Cookie.ForceHTTPS
	if gc.Cookie.HashSource != "" {
		cfg.Cookie.HashSource = gc.Cookie.HashSource
	}
	cfg.Cookie.HashUserAgent = gc.Cookie.HashUserAgent

	cfg.IPCheck.Enabled = gc.IPCheck.Enabled
	cfg.IPCheck.AllowList = gc.IPCheck.AllowList

	if gc.HTTPAuth.DefaultClient != "" {
		cfg.HTTPAuth.DefaultClient = gc.HTTPAuth.DefaultClient
	}
	if gc.HTTPAuth.DefaultVersion != "" {
		cfg.HTTPAuth.DefaultVersion = gc.HTTPAuth.DefaultVersion
	}

	if gc.Redirect.UIWebPath != "" {
		cfg.Redirect.UIWebPath = gc.Redirect.UIWebPath
	}

	if gc.Registry.KeyPrefix != "" {
		cfg.Registry.KeyPrefix = gc.Registry.KeyPrefix
	}
	if gc.Registry.SessionLifetime > 0 {
		cfg.Registry.SessionLifetime = gc.Registry.SessionLifetime
	}
	if gc.Registry.RandomTokenTTL > 0 {
		cfg.Registry.RandomTokenTTL = gc.Registry.RandomTokenTTL
	}

	cfg.Audit.Enabled = gc.Audit.Enabled
	if gc.Audit.BufferSize > 0 {
		cfg.Audit.BufferSize = gc.Audit.BufferSize
	}

	return cfg
}
