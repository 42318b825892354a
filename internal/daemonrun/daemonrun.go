package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cineref/internal/catalog"
	"cineref/internal/config"
	"cineref/internal/daemon"
	"cineref/internal/identify"
	"cineref/internal/identify/tmdb"
	"cineref/internal/identify/visual"
	"cineref/internal/media/frame"
	"cineref/internal/media/introspect"
	"cineref/internal/mediaurl"
	"cineref/internal/resolve"
	"cineref/internal/telegram"
)

// Services bundles the wired components shared by the daemon and the CLI.
type Services struct {
	Resolver *resolve.Service
	URLCache *mediaurl.Cache
	Catalog  *catalog.Store
	Pipeline *identify.Pipeline
}

// Close releases held resources.
func (s *Services) Close() error {
	if s == nil || s.Catalog == nil {
		return nil
	}
	return s.Catalog.Close()
}

// Build wires the resolver stack from configuration: platform client,
// retriever, URL cache, probers, identification stages, and catalog.
func Build(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	botClient, err := telegram.New(
		cfg.Telegram.BotToken,
		cfg.Telegram.APIBaseURL,
		time.Duration(cfg.Telegram.RequestTimeout)*time.Second,
	)
	if err != nil {
		return nil, fmt.Errorf("build telegram client: %w", err)
	}
	retriever := telegram.NewRetriever(botClient, cfg.Telegram.DestinationChatID, cfg.Telegram.FallbackChatID, logger)

	urlCache := mediaurl.NewCache(
		mediaurl.FetcherFunc(func(ctx context.Context, handle string) (string, error) {
			file, err := botClient.GetFile(ctx, handle)
			if err != nil {
				return "", err
			}
			return botClient.FileURL(file.FilePath), nil
		}),
		time.Duration(cfg.MediaURL.CacheTTLMinutes)*time.Minute,
		logger,
	)

	store, err := catalog.Open(cfg.Paths.CatalogDB)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(time.Duration(cfg.TMDB.RequestTimeout)*time.Second))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build tmdb client: %w", err)
	}

	stages := []identify.Stage{
		identify.NewCatalogStage(store, cfg.Catalog.MatchThreshold),
		identify.NewMetadataStage(tmdbClient),
	}
	if cfg.VisualSearch.Enabled {
		visualClient, err := visual.New(cfg.VisualSearch.Endpoint, cfg.VisualSearch.APIKey, cfg.VisualSearch.MaxCandidates,
			visual.WithTimeout(time.Duration(cfg.VisualSearch.RequestTimeout)*time.Second))
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("build visual search client: %w", err)
		}
		sampler := frame.NewSampler(
			cfg.Media.FFmpegBinary,
			cfg.Media.FFprobeBinary,
			time.Duration(cfg.Media.FrameTimeout)*time.Second,
			cfg.Media.FrameOffsetFraction,
		)
		stages = append(stages, identify.NewVisualStage(sampler, visualClient, tmdbClient))
	}
	pipeline := identify.NewPipeline(logger, stages...)

	prober := introspect.NewProber(cfg.Media.YtDlpBinary, time.Duration(cfg.Media.IntrospectTimeout)*time.Second)

	resolver := resolve.NewService(retriever, urlCache, prober, pipeline, cfg.Media.FrameMaxHeight, logger)
	return &Services{
		Resolver: resolver,
		URLCache: urlCache,
		Catalog:  store,
		Pipeline: pipeline,
	}, nil
}

// Run builds the stack, starts the daemon, and blocks until ctx is done.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	services, err := Build(cfg, logger)
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg, services.Resolver, services.Catalog, logger)
	if err != nil {
		services.Close()
		return err
	}
	d.SetURLCache(services.URLCache)
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}
