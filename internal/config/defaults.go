package config

const (
	defaultLogDir                 = "~/.local/share/cineref/logs"
	defaultCatalogDB              = "~/.local/share/cineref/catalog.db"
	defaultAPIBind                = "127.0.0.1:7519"
	defaultTelegramAPIBaseURL     = "https://api.telegram.org"
	defaultTelegramRequestTimeout = 15
	defaultCacheTTLMinutes        = 360
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultTMDBLanguage           = "en-US"
	defaultTMDBRequestTimeout     = 10
	defaultVisualRequestTimeout   = 30
	defaultVisualMaxCandidates    = 10
	defaultIntrospectTimeout      = 60
	defaultFrameTimeout           = 120
	defaultFrameOffsetFraction    = 0.3
	defaultFrameMaxHeight         = 480
	defaultCatalogMatchThreshold  = 0.6
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			CatalogDB: defaultCatalogDB,
			APIBind:   defaultAPIBind,
		},
		Telegram: Telegram{
			APIBaseURL:     defaultTelegramAPIBaseURL,
			RequestTimeout: defaultTelegramRequestTimeout,
		},
		MediaURL: MediaURL{
			CacheTTLMinutes: defaultCacheTTLMinutes,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			RequestTimeout: defaultTMDBRequestTimeout,
		},
		VisualSearch: VisualSearch{
			RequestTimeout: defaultVisualRequestTimeout,
			MaxCandidates:  defaultVisualMaxCandidates,
		},
		Media: Media{
			FFmpegBinary:        "ffmpeg",
			FFprobeBinary:       "ffprobe",
			YtDlpBinary:         "yt-dlp",
			IntrospectTimeout:   defaultIntrospectTimeout,
			FrameTimeout:        defaultFrameTimeout,
			FrameOffsetFraction: defaultFrameOffsetFraction,
			FrameMaxHeight:      defaultFrameMaxHeight,
		},
		Catalog: Catalog{
			MatchThreshold: defaultCatalogMatchThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
