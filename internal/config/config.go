package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir    string `toml:"log_dir"`
	CatalogDB string `toml:"catalog_db"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// Telegram contains configuration for the host messaging platform.
type Telegram struct {
	BotToken          string `toml:"bot_token"`
	APIBaseURL        string `toml:"api_base_url"`
	DestinationChatID int64  `toml:"destination_chat_id"`
	FallbackChatID    int64  `toml:"fallback_chat_id"`
	RequestTimeout    int    `toml:"request_timeout"`
}

// MediaURL contains configuration for the durable URL cache.
type MediaURL struct {
	// CacheTTLMinutes bounds how long a resolved URL is served without a
	// fresh platform call. Kept below the platform's observed URL lifetime.
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
}

// VisualSearch contains configuration for the reverse image search service.
type VisualSearch struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
	MaxCandidates  int    `toml:"max_candidates"`
}

// Media contains configuration for external media tooling.
type Media struct {
	FFmpegBinary        string  `toml:"ffmpeg_binary"`
	FFprobeBinary       string  `toml:"ffprobe_binary"`
	YtDlpBinary         string  `toml:"ytdlp_binary"`
	IntrospectTimeout   int     `toml:"introspect_timeout"`
	FrameTimeout        int     `toml:"frame_timeout"`
	FrameOffsetFraction float64 `toml:"frame_offset_fraction"`
	FrameMaxHeight      int     `toml:"frame_max_height"`
}

// Catalog contains configuration for local catalog title matching.
type Catalog struct {
	MatchThreshold float64 `toml:"match_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cineref.
//
// Configuration sections by subsystem:
//   - Paths: log directory, catalog database, API bind address
//   - Telegram: bot credentials and the destination chat used for
//     indirect message retrieval
//   - MediaURL: durable URL cache TTL
//   - TMDB: text search and find-by-external-id lookups
//   - VisualSearch: reverse image search endpoint
//   - Media: ffmpeg/ffprobe/yt-dlp binaries, timeouts, frame sampling
//   - Catalog: fuzzy match threshold for the local film catalog
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Telegram     Telegram     `toml:"telegram"`
	MediaURL     MediaURL     `toml:"media_url"`
	TMDB         TMDB         `toml:"tmdb"`
	VisualSearch VisualSearch `toml:"visual_search"`
	Media        Media        `toml:"media"`
	Catalog      Catalog      `toml:"catalog"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cineref/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("cineref.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the provided path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the process writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Paths.CatalogDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.CatalogDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
