package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateMediaURL(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateVisualSearch(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cineref/config.toml"
		}
		return fmt.Errorf("telegram.bot_token is required. Set TELEGRAM_TOKEN env var or edit %s (create with 'cineref config init')", defaultPath)
	}
	if c.Telegram.DestinationChatID == 0 {
		return errors.New("telegram.destination_chat_id must be set to a chat the bot can post to")
	}
	return nil
}

func (c *Config) validateMediaURL() error {
	if c.MediaURL.CacheTTLMinutes <= 0 {
		return errors.New("media_url.cache_ttl_minutes must be positive")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		return errors.New("tmdb.api_key is required. Set TMDB_API_KEY env var or add it to the config file")
	}
	return nil
}

func (c *Config) validateVisualSearch() error {
	if !c.VisualSearch.Enabled {
		return nil
	}
	if c.VisualSearch.Endpoint == "" {
		return errors.New("visual_search.endpoint must be set when visual_search.enabled is true")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.FrameOffsetFraction <= 0 || c.Media.FrameOffsetFraction >= 1 {
		return errors.New("media.frame_offset_fraction must be between 0 and 1 exclusive")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.MatchThreshold < 0 || c.Catalog.MatchThreshold > 1 {
		return errors.New("catalog.match_threshold must be between 0 and 1")
	}
	return nil
}
