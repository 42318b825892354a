package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTelegram()
	c.normalizeTMDB()
	c.normalizeVisualSearch()
	c.normalizeMedia()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CatalogDB) == "" {
		c.Paths.CatalogDB = defaultCatalogDB
	}
	if c.Paths.CatalogDB, err = expandPath(c.Paths.CatalogDB); err != nil {
		return fmt.Errorf("paths.catalog_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		c.Telegram.BotToken = strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN"))
	}
	c.Telegram.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Telegram.APIBaseURL), "/")
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = defaultTelegramAPIBaseURL
	}
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = defaultTelegramRequestTimeout
	}
}

func (c *Config) normalizeTMDB() {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		c.TMDB.APIKey = strings.TrimSpace(os.Getenv("TMDB_API_KEY"))
	}
	if strings.TrimSpace(c.TMDB.BaseURL) == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
}

func (c *Config) normalizeVisualSearch() {
	c.VisualSearch.Endpoint = strings.TrimSpace(c.VisualSearch.Endpoint)
	if c.VisualSearch.RequestTimeout <= 0 {
		c.VisualSearch.RequestTimeout = defaultVisualRequestTimeout
	}
	if c.VisualSearch.MaxCandidates <= 0 {
		c.VisualSearch.MaxCandidates = defaultVisualMaxCandidates
	}
}

func (c *Config) normalizeMedia() {
	if strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		c.Media.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		c.Media.FFprobeBinary = "ffprobe"
	}
	if strings.TrimSpace(c.Media.YtDlpBinary) == "" {
		c.Media.YtDlpBinary = "yt-dlp"
	}
	if c.Media.IntrospectTimeout <= 0 {
		c.Media.IntrospectTimeout = defaultIntrospectTimeout
	}
	if c.Media.FrameTimeout <= 0 {
		c.Media.FrameTimeout = defaultFrameTimeout
	}
	if c.Media.FrameOffsetFraction == 0 {
		c.Media.FrameOffsetFraction = defaultFrameOffsetFraction
	}
	if c.Media.FrameMaxHeight <= 0 {
		c.Media.FrameMaxHeight = defaultFrameMaxHeight
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
