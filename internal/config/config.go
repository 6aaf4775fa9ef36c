package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	API     APIConfig     `toml:"api"`
	Viewer  ViewerConfig  `toml:"viewer"`
	Board   BoardConfig   `toml:"board"`
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
	Serve   ServeConfig   `toml:"serve"`
}

type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	PageLimit      int    `toml:"page_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type ViewerConfig struct {
	DisplayName string `toml:"display_name"`
	Role        string `toml:"role"` // admin | staff
}

type BoardConfig struct {
	IncludeCancel bool   `toml:"include_cancel"`
	SingleColumn  bool   `toml:"single_column"`
	Sort          string `toml:"sort"` // newest | oldest | number | customer
	TouchMode     bool   `toml:"touch_mode"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServeConfig struct {
	Addr         string `toml:"addr"`
	EndpointPath string `toml:"endpoint_path"`
}

func Default(cachePath string) Config {
	return Config{
		API: APIConfig{
			PageLimit:      1000,
			TimeoutSeconds: 15,
		},
		Viewer: ViewerConfig{
			Role: "staff",
		},
		Board: BoardConfig{
			IncludeCancel: true,
			Sort:          "newest",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    cachePath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".ordna/log",
			},
		},
		Serve: ServeConfig{
			Addr:         "127.0.0.1:7466",
			EndpointPath: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.PageLimit < 0 {
		return errors.New("api.page_limit must be >= 0")
	}
	if c.API.TimeoutSeconds < 0 {
		return errors.New("api.timeout_seconds must be >= 0")
	}

	switch strings.TrimSpace(strings.ToLower(c.Viewer.Role)) {
	case "", "admin", "staff":
	default:
		return fmt.Errorf("invalid viewer.role: %q", c.Viewer.Role)
	}

	switch strings.TrimSpace(strings.ToLower(c.Board.Sort)) {
	case "", "newest", "oldest", "number", "customer":
	default:
		return fmt.Errorf("invalid board.sort: %q", c.Board.Sort)
	}

	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path is required when cache is enabled")
	}

	return nil
}

// APITimeout returns the configured request timeout as a duration.
func (c Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
