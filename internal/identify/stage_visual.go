package identify

import (
	"context"
	"errors"

	"cineref/internal/identify/tmdb"
	"cineref/internal/identify/visual"
	"cineref/internal/services"
)

// FrameSampler yields one still frame from a streamable URL.
type FrameSampler interface {
	Sample(ctx context.Context, streamURL string, durationSeconds float64) ([]byte, error)
}

// VisualStage samples a frame from the stream and reverse-image-searches it,
// resolving IMDb hits through TMDB. It is the most expensive stage and runs
// only after the cheaper ones have come up empty.
type VisualStage struct {
	sampler  FrameSampler
	searcher visual.Searcher
	resolver tmdb.Searcher
}

// NewVisualStage builds the stage.
func NewVisualStage(sampler FrameSampler, searcher visual.Searcher, resolver tmdb.Searcher) *VisualStage {
	return &VisualStage{sampler: sampler, searcher: searcher, resolver: resolver}
}

func (s *VisualStage) Name() Source { return SourceVisual }

func (s *VisualStage) Attempt(ctx context.Context, req Request) (*Identification, error) {
	if req.StreamURL == "" {
		return nil, services.Wrap(services.ErrNoIdentification, "identify", "visual_cross_reference", "no stream to sample", nil)
	}

	frame, err := s.sampler.Sample(ctx, req.StreamURL, req.Duration)
	if err != nil {
		return nil, err
	}

	candidates, err := s.searcher.SearchByImage(ctx, frame)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, services.Wrap(services.ErrNoIdentification, "identify", "visual_cross_reference", "no reverse image hits", nil)
	}

	for _, candidate := range candidates {
		imdbID := candidate.IMDbID()
		if imdbID == "" {
			continue
		}
		result, err := s.resolver.FindByIMDbID(ctx, imdbID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			return nil, err
		}
		return &Identification{
			Title:       result.Title,
			Year:        result.ReleaseYear(),
			Description: result.Overview,
			IMDbID:      imdbID,
			TMDBID:      result.ID,
			Confidence:  candidate.MatchScore,
		}, nil
	}
	return nil, services.Wrap(services.ErrNoIdentification, "identify", "visual_cross_reference", "no candidate resolved to a title", nil)
}
