package identify

import (
	"context"

	"cineref/internal/identify/tmdb"
	"cineref/internal/services"
)

// MetadataStage searches TMDB with the title and year pulled out of the
// media's own metadata.
type MetadataStage struct {
	searcher tmdb.Searcher
}

// NewMetadataStage builds the stage.
func NewMetadataStage(searcher tmdb.Searcher) *MetadataStage {
	return &MetadataStage{searcher: searcher}
}

func (s *MetadataStage) Name() Source { return SourceMetadataSearch }

func (s *MetadataStage) Attempt(ctx context.Context, req Request) (*Identification, error) {
	if req.Title == "" {
		return nil, services.Wrap(services.ErrNoIdentification, "identify", "metadata_search", "no title to search", nil)
	}
	resp, err := s.searcher.SearchMovieWithOptions(ctx, req.Title, tmdb.SearchOptions{Year: req.Year})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 && req.Year > 0 {
		// The embedded year may be wrong; retry unconstrained before giving up.
		resp, err = s.searcher.SearchMovieWithOptions(ctx, req.Title, tmdb.SearchOptions{})
		if err != nil {
			return nil, err
		}
	}
	if len(resp.Results) == 0 {
		return nil, services.Wrap(services.ErrNoIdentification, "identify", "metadata_search", "tmdb returned no results", nil)
	}
	top := resp.Results[0]
	return &Identification{
		Title:       top.Title,
		Year:        top.ReleaseYear(),
		Description: top.Overview,
		TMDBID:      top.ID,
	}, nil
}
