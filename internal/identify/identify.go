package identify

import (
	"context"
	"errors"
	"log/slog"

	"cineref/internal/logging"
	"cineref/internal/services"
)

// Source names the pipeline stage that produced an identification.
type Source string

const (
	SourceLocalCatalog   Source = "local_catalog"
	SourceMetadataSearch Source = "metadata_search"
	SourceVisual         Source = "visual_cross_reference"
)

// Identification is a resolved film identity.
type Identification struct {
	Title       string  `json:"title"`
	Year        int     `json:"year,omitempty"`
	Description string  `json:"description,omitempty"`
	IMDbID      string  `json:"imdb_id,omitempty"`
	TMDBID      int64   `json:"tmdb_id,omitempty"`
	Source      Source  `json:"source"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// Request carries everything the stages may consult. Fields are optional;
// each stage decides whether it has enough to attempt a match.
type Request struct {
	Title       string
	Year        int
	Description string
	StreamURL   string
	Duration    float64
}

// Stage attempts one identification strategy. Returning a nil error with a
// non-nil Identification ends the pipeline; ErrNoIdentification, ErrNotFound,
// and ErrRateLimited hand off to the next stage; any other error aborts.
type Stage interface {
	Name() Source
	Attempt(ctx context.Context, req Request) (*Identification, error)
}

// Pipeline runs stages cheapest-first and stops at the first hit.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

// NewPipeline assembles a pipeline from ordered stages.
func NewPipeline(logger *slog.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{stages: stages, logger: logger}
}

// Identify runs the stages in order. When every stage comes up empty the
// result is a wrapped ErrNoIdentification so callers can distinguish
// "definitely unidentified" from an aborted attempt. A rate-limited stage
// is never retried, but later stages still run; if one of them also hits
// the throttled provider it surfaces its own 429.
func (p *Pipeline) Identify(ctx context.Context, req Request) (*Identification, error) {
	var rateLimited error
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, services.ClassifyContextError(ctx, "identify", "pipeline", err)
		}
		result, err := stage.Attempt(ctx, req)
		if err != nil {
			if errors.Is(err, services.ErrNoIdentification) || errors.Is(err, services.ErrNotFound) {
				p.logger.Debug("stage found no match",
					logging.String("stage", string(stage.Name())),
					logging.Error(err))
				continue
			}
			if errors.Is(err, services.ErrRateLimited) {
				rateLimited = err
				p.logger.Warn("stage rate limited, handing off",
					logging.String("stage", string(stage.Name())),
					logging.Error(err))
				continue
			}
			return nil, services.Wrap(err, "identify", string(stage.Name()), "stage aborted", nil)
		}
		if result == nil {
			continue
		}
		result.Source = stage.Name()
		p.logger.Info("identified",
			logging.String("stage", string(stage.Name())),
			logging.String("title", result.Title),
			logging.Int("year", result.Year))
		return result, nil
	}
	if rateLimited != nil {
		return nil, services.Wrap(rateLimited, "identify", "pipeline", "no later stage matched", nil)
	}
	return nil, services.Wrap(services.ErrNoIdentification, "identify", "pipeline", "all stages exhausted", nil)
}
