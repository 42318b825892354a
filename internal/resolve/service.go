package resolve

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"cineref/internal/identify"
	"cineref/internal/logging"
	"cineref/internal/media/introspect"
	"cineref/internal/reference"
	"cineref/internal/services"
)

// HandleRetriever turns a post-link reference into a media handle.
type HandleRetriever interface {
	MediaHandle(ctx context.Context, ref reference.ContentReference) (string, error)
}

// URLCache resolves and refreshes durable URLs for media handles.
type URLCache interface {
	Resolve(ctx context.Context, handle string) (string, error)
	Refresh(ctx context.Context, handle string) (string, error)
}

// MetadataProber extracts metadata from a direct URL without downloading.
type MetadataProber interface {
	Probe(ctx context.Context, mediaURL string) (*introspect.Metadata, error)
}

// Identifier runs the film identification pipeline.
type Identifier interface {
	Identify(ctx context.Context, req identify.Request) (*identify.Identification, error)
}

// Request describes one resolution request. Exactly one of Reference and
// UploadPath identifies the content; HintTitle optionally seeds the
// identification pipeline when the caller already knows the title.
type Request struct {
	Reference  string
	UploadPath string
	HintTitle  string
}

// Resolution is the complete outcome for one content reference: a playback
// URL plus whatever the identification pipeline could establish. The two
// halves are independent; identification failing never voids the URL.
type Resolution struct {
	Reference      reference.ContentReference `json:"reference"`
	MediaHandle    string                     `json:"media_handle,omitempty"`
	PlaybackURL    string                     `json:"playback_url"`
	Identification *identify.Identification   `json:"identification,omitempty"`
	Unidentified   bool                       `json:"unidentified"`
	IdentifyNote   string                     `json:"identify_note,omitempty"`
	ResolvedAt     time.Time                  `json:"resolved_at"`
}

// Service wires classification, retrieval, URL caching, and identification
// into the one operation the API and CLI expose.
type Service struct {
	retriever      HandleRetriever
	urls           URLCache
	prober         MetadataProber
	identifier     Identifier
	frameMaxHeight int
	logger         *slog.Logger
}

// NewService constructs the resolver service.
func NewService(retriever HandleRetriever, urls URLCache, prober MetadataProber, identifier Identifier, frameMaxHeight int, logger *slog.Logger) *Service {
	if frameMaxHeight <= 0 {
		frameMaxHeight = 480
	}
	return &Service{
		retriever:      retriever,
		urls:           urls,
		prober:         prober,
		identifier:     identifier,
		frameMaxHeight: frameMaxHeight,
		logger:         logging.NewComponentLogger(logger, "resolve"),
	}
}

// Resolve classifies the reference, obtains a playback URL for it, and
// attempts identification.
func (s *Service) Resolve(ctx context.Context, in Request) (*Resolution, error) {
	ref, err := reference.Classify(in.Reference, in.UploadPath)
	if err != nil {
		return nil, err
	}

	resolution := &Resolution{Reference: ref, ResolvedAt: time.Now().UTC()}
	var req identify.Request

	switch ref.Kind {
	case reference.KindPublicPost, reference.KindPrivatePost:
		handle, err := s.retriever.MediaHandle(ctx, ref)
		if err != nil {
			return nil, err
		}
		playback, err := s.urls.Resolve(ctx, handle)
		if err != nil {
			return nil, err
		}
		resolution.MediaHandle = handle
		resolution.PlaybackURL = playback
		req = identify.Request{StreamURL: playback}

	case reference.KindDirectURL:
		resolution.PlaybackURL = ref.URL
		req = s.probeDirect(ctx, ref.URL)

	case reference.KindUpload:
		resolution.PlaybackURL = ref.LocalPath
		title, year := titleFromPath(ref.LocalPath)
		req = identify.Request{Title: title, Year: year, StreamURL: ref.LocalPath}

	default:
		return nil, services.Wrap(services.ErrInvalidReference, "resolve", "classify", "unsupported reference kind", nil)
	}

	if hint := strings.TrimSpace(in.HintTitle); hint != "" {
		title, year := introspect.SplitTitleYear(hint)
		req.Title = title
		if year != 0 {
			req.Year = year
		}
	}

	s.identify(ctx, req, resolution)
	return resolution, nil
}

// RefreshHandle re-resolves the durable URL for a media handle obtained from
// an earlier resolution. No classification or retrieval happens; the handle
// goes straight to the platform's file-info call.
func (s *Service) RefreshHandle(ctx context.Context, handle string) (string, error) {
	return s.urls.Refresh(ctx, handle)
}

// RefreshURL forces re-resolution of the playback URL for a post reference,
// bypassing the cache. Callers that kept the media handle from the original
// resolution should prefer RefreshHandle, which skips the forward round trip.
func (s *Service) RefreshURL(ctx context.Context, raw string) (string, error) {
	ref, err := reference.Classify(raw, "")
	if err != nil {
		return "", err
	}
	switch ref.Kind {
	case reference.KindPublicPost, reference.KindPrivatePost:
	case reference.KindDirectURL:
		// Direct URLs are not cached; the reference itself is the URL.
		return ref.URL, nil
	default:
		return "", services.Wrap(services.ErrInvalidReference, "resolve", "refresh", "reference has no refreshable url", nil)
	}

	handle, err := s.retriever.MediaHandle(ctx, ref)
	if err != nil {
		return "", err
	}
	return s.urls.Refresh(ctx, handle)
}

// probeDirect builds the identification request for a direct URL. A failed
// probe degrades to a bare visual attempt against the URL itself rather than
// failing the resolution.
func (s *Service) probeDirect(ctx context.Context, mediaURL string) identify.Request {
	meta, err := s.prober.Probe(ctx, mediaURL)
	if err != nil {
		s.logger.Warn("metadata probe failed, continuing without metadata",
			logging.String("url", mediaURL),
			logging.Error(err))
		return identify.Request{StreamURL: mediaURL}
	}
	title, year := introspect.SplitTitleYear(meta.Title)
	return identify.Request{
		Title:       title,
		Year:        year,
		Description: meta.Description,
		StreamURL:   meta.BestStreamURL(s.frameMaxHeight),
		Duration:    meta.Duration,
	}
}

// identify runs the pipeline and folds the outcome into the resolution.
// Identification is best-effort: every failure class lands in Unidentified
// with a note, never in a resolution error.
func (s *Service) identify(ctx context.Context, req identify.Request, resolution *Resolution) {
	result, err := s.identifier.Identify(ctx, req)
	if err != nil {
		resolution.Unidentified = true
		switch {
		case errors.Is(err, services.ErrNoIdentification):
			resolution.IdentifyNote = "no stage produced a match"
		case errors.Is(err, services.ErrRateLimited):
			resolution.IdentifyNote = "identification paused: provider rate limit"
		default:
			resolution.IdentifyNote = "identification failed: " + err.Error()
		}
		s.logger.Info("resolution completed without identification",
			logging.String("note", resolution.IdentifyNote))
		return
	}
	resolution.Identification = result
}

// titleFromPath derives a search title from an uploaded file's name.
func titleFromPath(path string) (string, int) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(base)
	return introspect.SplitTitleYear(base)
}
