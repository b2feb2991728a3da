package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const appName = "apiref"

type WebConfig struct {
	Addr         string `mapstructure:"addr"`
	CacheControl string `mapstructure:"cache_control"`
}

type DaemonConfig struct {
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

type RegistryConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FixturesConfig struct {
	Dir string `mapstructure:"dir"`
}

type LocalConfig struct {
	Input string `mapstructure:"input"`
}

type HighlightConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Style    string `mapstructure:"style"`
	Language string `mapstructure:"language"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Web       WebConfig       `mapstructure:"web"`
	Daemon    DaemonConfig    `mapstructure:"daemon"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Fixtures  FixturesConfig  `mapstructure:"fixtures"`
	Local     LocalConfig     `mapstructure:"local"`
	Highlight HighlightConfig `mapstructure:"highlight"`
	Log       LogConfig       `mapstructure:"log"`
}

// Expiration is the daemon idle timeout.
func (c *Config) Expiration() time.Duration {
	if c.Daemon.ExpirationSeconds <= 0 {
		return 600 * time.Second
	}
	return time.Duration(c.Daemon.ExpirationSeconds) * time.Second
}

// cacheBase returns the base cache directory for apiref.
// Checks XDG_CACHE_HOME, then ~/.cache, then the temp dir as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}

// DBPath returns the path to the DuckDB catalogue.
func DBPath() string {
	return filepath.Join(cacheBase(), "db.db")
}

// CASDir returns the path to the doc-model blob store.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// LogPath returns the path to the daemon's log file.
func LogPath() string {
	return filepath.Join(cacheBase(), "daemon.log")
}

// SocketPath returns the path to the daemon's unix socket.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName, "daemon.sock")
	}
	return filepath.Join(fmt.Sprintf("/run/user/%d", os.Getuid()), appName, "daemon.sock")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("web.addr", ":3000")
	v.SetDefault("web.cache_control", "public, max-age=60, s-maxage=60, stale-while-revalidate=3600")
	v.SetDefault("daemon.expiration_seconds", 600)
	v.SetDefault("registry.url", "https://unpkg.com")
	v.SetDefault("registry.timeout", "60s")
	v.SetDefault("fixtures.dir", "fixtures")
	v.SetDefault("local.input", "")
	v.SetDefault("highlight.enabled", true)
	v.SetDefault("highlight.style", "onedark")
	v.SetDefault("highlight.language", "typescript")
	v.SetDefault("log.level", "info")
}

// InitializeViper prepares v with defaults, search paths and the APIREF_
// environment prefix, then reads config.toml if one exists.
func InitializeViper(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("toml")

	v.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, appName))
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", appName))
	}

	setDefaults(v)

	v.SetEnvPrefix("APIREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Load reads configuration through the global viper instance, so flags
// bound with viper.BindPFlag take effect.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	if err := InitializeViper(v); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Registry.URL = strings.TrimRight(config.Registry.URL, "/")
	return &config, nil
}
