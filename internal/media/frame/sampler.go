package frame

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"cineref/internal/services"
)

// Sampler decodes a single representative still frame from a streamable
// URL. It is the only component in the system that touches actual media
// decoding, and it never buffers the whole stream: ffmpeg seeks to the
// offset and stops after one frame.
type Sampler struct {
	ffmpegBinary   string
	ffprobeBinary  string
	timeout        time.Duration
	offsetFraction float64
}

// NewSampler constructs a Sampler. offsetFraction positions the sample
// within the clip's duration; out-of-range values fall back to 0.3.
func NewSampler(ffmpegBinary, ffprobeBinary string, timeout time.Duration, offsetFraction float64) *Sampler {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if offsetFraction <= 0 || offsetFraction >= 1 {
		offsetFraction = 0.3
	}
	return &Sampler{
		ffmpegBinary:   ffmpegBinary,
		ffprobeBinary:  ffprobeBinary,
		timeout:        timeout,
		offsetFraction: offsetFraction,
	}
}

// Sample decodes one JPEG-encoded frame at offsetFraction into the stream's
// duration. durationSeconds may be 0, in which case the duration is probed;
// when it cannot be determined at all, the first frame is decoded instead
// of failing.
func (s *Sampler) Sample(ctx context.Context, streamURL string, durationSeconds float64) ([]byte, error) {
	streamURL = strings.TrimSpace(streamURL)
	if streamURL == "" {
		return nil, services.Wrap(services.ErrInvalidReference, "frame", "sample", "empty stream url", nil)
	}

	sampleCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if durationSeconds <= 0 {
		durationSeconds = s.probeDuration(sampleCtx, streamURL)
	}

	offset := 0.0
	if durationSeconds > 0 {
		offset = durationSeconds * s.offsetFraction
	}

	args := buildSampleArgs(streamURL, offset)
	cmd := exec.CommandContext(sampleCtx, s.ffmpegBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(sampleCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "frame", "sample", "ffmpeg exceeded budget", err)
		}
		return nil, services.Wrap(services.ErrTransient, "frame", "sample", strings.TrimSpace(stderr.String()), err)
	}
	if stdout.Len() == 0 {
		return nil, services.Wrap(services.ErrTransient, "frame", "sample", "ffmpeg produced no frame", nil)
	}
	return stdout.Bytes(), nil
}

// buildSampleArgs assembles the ffmpeg invocation: seek before the input so
// ffmpeg never reads the stream up to the offset, decode exactly one frame,
// write JPEG to stdout.
func buildSampleArgs(streamURL string, offsetSeconds float64) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if offsetSeconds > 0 {
		args = append(args, "-ss", strconv.FormatFloat(offsetSeconds, 'f', 3, 64))
	}
	args = append(args,
		"-i", streamURL,
		"-frames:v", "1",
		"-c:v", "mjpeg",
		"-f", "image2",
		"pipe:1",
	)
	return args
}

// probeDuration asks ffprobe for the container duration. Any failure simply
// yields 0 so the caller falls back to decoding the first frame.
func (s *Sampler) probeDuration(ctx context.Context, streamURL string) float64 {
	cmd := exec.CommandContext(ctx, s.ffprobeBinary,
		"-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", streamURL)
	output, err := cmd.Output()
	if err != nil {
		return 0
	}
	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return 0
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(payload.Format.Duration), 64)
	if err != nil || duration < 0 {
		return 0
	}
	return duration
}

// OffsetFor exposes the sample position calculation for diagnostics output.
func (s *Sampler) OffsetFor(durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return durationSeconds * s.offsetFraction
}
