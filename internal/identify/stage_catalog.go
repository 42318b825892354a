package identify

import (
	"context"

	"cineref/internal/catalog"
	"cineref/internal/services"
)

// CatalogSearcher is the catalog operation the stage depends on.
type CatalogSearcher interface {
	Search(ctx context.Context, query string, year int, threshold float64) (*catalog.Match, error)
}

// CatalogStage matches the extracted title against the local film catalog.
// It is the cheapest stage and therefore runs first.
type CatalogStage struct {
	store     CatalogSearcher
	threshold float64
}

// NewCatalogStage builds the stage. threshold is the minimum cosine
// similarity accepted as a match.
func NewCatalogStage(store CatalogSearcher, threshold float64) *CatalogStage {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.6
	}
	return &CatalogStage{store: store, threshold: threshold}
}

func (s *CatalogStage) Name() Source { return SourceLocalCatalog }

func (s *CatalogStage) Attempt(ctx context.Context, req Request) (*Identification, error) {
	if req.Title == "" {
		return nil, services.Wrap(services.ErrNoIdentification, "identify", "local_catalog", "no title to match", nil)
	}
	match, err := s.store.Search(ctx, req.Title, req.Year, s.threshold)
	if err != nil {
		return nil, err
	}
	return &Identification{
		Title:       match.Film.Title,
		Year:        match.Film.Year,
		Description: match.Film.Description,
		IMDbID:      match.Film.IMDbID,
		Confidence:  match.Score,
	}, nil
}
