package introspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"cineref/internal/services"
)

// Metadata is what yt-dlp reports about a direct URL without downloading it.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	UploadDate  string   `json:"upload_date"` // YYYYMMDD
	Duration    float64  `json:"duration"`
	URL         string   `json:"url"`
	Formats     []Format `json:"formats"`
}

// Format describes one streamable sub-resource of the media.
type Format struct {
	URL        string  `json:"url"`
	Height     int     `json:"height"`
	Width      int     `json:"width"`
	Ext        string  `json:"ext"`
	VCodec     string  `json:"vcodec"`
	FormatNote string  `json:"format_note"`
	TBR        float64 `json:"tbr"`
}

// PublishedAt parses the upload date, returning the zero time when absent.
func (m *Metadata) PublishedAt() time.Time {
	parsed, err := time.Parse("20060102", strings.TrimSpace(m.UploadDate))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// BestStreamURL picks the tallest video stream at or below maxHeight, so
// frame sampling never pulls more resolution than it needs. Falls back to
// the container-level URL when no format qualifies.
func (m *Metadata) BestStreamURL(maxHeight int) string {
	var best *Format
	for i := range m.Formats {
		f := &m.Formats[i]
		if f.URL == "" || f.VCodec == "none" {
			continue
		}
		if maxHeight > 0 && f.Height > maxHeight {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}
	if best != nil {
		return best.URL
	}
	return m.URL
}

// Prober invokes yt-dlp to extract metadata without downloading media.
type Prober struct {
	binary  string
	timeout time.Duration
}

// NewProber constructs a Prober around the given yt-dlp binary.
func NewProber(binary string, timeout time.Duration) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Prober{binary: binary, timeout: timeout}
}

// Probe runs yt-dlp against the URL under a hard timeout and decodes its
// JSON dump. Failures are classified; callers in the identification
// pipeline treat any failure as an ordinary "no metadata" outcome.
func (p *Prober) Probe(ctx context.Context, mediaURL string) (*Metadata, error) {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return nil, services.Wrap(services.ErrInvalidReference, "introspect", "probe", "empty url", nil)
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, p.binary, "-J", "--no-download", "--no-warnings", "--", mediaURL)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "introspect", "probe", "yt-dlp exceeded budget", err)
		}
		detail := strings.TrimSpace(stderr.String())
		return nil, services.Wrap(services.ErrTransient, "introspect", "probe", detail, err)
	}

	var metadata Metadata
	if err := json.Unmarshal(stdout.Bytes(), &metadata); err != nil {
		return nil, services.Wrap(services.ErrTransient, "introspect", "probe", "decode yt-dlp output", err)
	}
	return &metadata, nil
}

// Decode parses a yt-dlp JSON dump. Split out so tests and offline tooling
// can exercise the parsing without the binary.
func Decode(data []byte) (*Metadata, error) {
	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}
