package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"cineref/internal/config"
	"cineref/internal/identify"
	"cineref/internal/logging"
	"cineref/internal/media/introspect"
	"cineref/internal/reference"
	"cineref/internal/resolve"
)

type fakeRetriever struct{ handle string }

func (f *fakeRetriever) MediaHandle(ctx context.Context, ref reference.ContentReference) (string, error) {
	return f.handle, nil
}

type fakeURLCache struct{ url string }

func (f *fakeURLCache) Resolve(ctx context.Context, handle string) (string, error) { return f.url, nil }
func (f *fakeURLCache) Refresh(ctx context.Context, handle string) (string, error) { return f.url, nil }

type fakeProber struct{}

func (f *fakeProber) Probe(ctx context.Context, mediaURL string) (*introspect.Metadata, error) {
	return &introspect.Metadata{Title: "Nightfall (2019)", URL: mediaURL}, nil
}

type fakeIdentifier struct{ result *identify.Identification }

func (f *fakeIdentifier) Identify(ctx context.Context, req identify.Request) (*identify.Identification, error) {
	return f.result, nil
}

func startTestDaemon(t *testing.T, token string) *Daemon {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.APIToken = token
	cfg.Telegram.BotToken = "123:abc"
	cfg.Telegram.DestinationChatID = -100
	// Point the preflight probes at a closed local port so tests never
	// touch the network.
	cfg.Telegram.APIBaseURL = "http://127.0.0.1:1"
	cfg.TMDB.BaseURL = "http://127.0.0.1:1"

	resolver := resolve.NewService(
		&fakeRetriever{handle: "file-abc"},
		&fakeURLCache{url: "https://cdn.example.com/file.mp4"},
		&fakeProber{},
		&fakeIdentifier{result: &identify.Identification{Title: "Nightfall", Year: 2019, Source: identify.SourceMetadataSearch}},
		480,
		logging.NewNop(),
	)

	d, err := New(&cfg, resolver, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func TestResolveEndpoint(t *testing.T) {
	d := startTestDaemon(t, "")

	body, _ := json.Marshal(map[string]string{"reference": "https://example.tld/c/123456789/55"})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/resolve", d.APIAddr()), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post resolve: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}

	var resolution resolve.Resolution
	if err := json.NewDecoder(resp.Body).Decode(&resolution); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resolution.PlaybackURL != "https://cdn.example.com/file.mp4" {
		t.Fatalf("playback url = %q", resolution.PlaybackURL)
	}
	if resolution.Identification == nil || resolution.Identification.Title != "Nightfall" {
		t.Fatalf("identification = %+v", resolution.Identification)
	}
}

func TestResolveEndpointRejectsBadReference(t *testing.T) {
	d := startTestDaemon(t, "")

	body, _ := json.Marshal(map[string]string{"reference": "not a reference"})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/resolve", d.APIAddr()), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post resolve: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	d := startTestDaemon(t, "")

	body, _ := json.Marshal(map[string]string{"reference": "https://example.tld/c/123456789/55"})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/refresh", d.APIAddr()), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post refresh: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload struct {
		PlaybackURL string `json:"playback_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.PlaybackURL != "https://cdn.example.com/file.mp4" {
		t.Fatalf("playback url = %q", payload.PlaybackURL)
	}
}

func TestRefreshEndpointByHandle(t *testing.T) {
	d := startTestDaemon(t, "")

	body, _ := json.Marshal(map[string]string{"handle": "file-abc"})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/refresh", d.APIAddr()), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post refresh: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload struct {
		PlaybackURL string `json:"playback_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.PlaybackURL != "https://cdn.example.com/file.mp4" {
		t.Fatalf("playback url = %q", payload.PlaybackURL)
	}
}

func TestRefreshEndpointRequiresHandleOrReference(t *testing.T) {
	d := startTestDaemon(t, "")

	resp, err := http.Post(fmt.Sprintf("http://%s/api/refresh", d.APIAddr()), "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("post refresh: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestStatusEndpointRequiresToken(t *testing.T) {
	d := startTestDaemon(t, "sekrit")

	resp, err := http.Get(fmt.Sprintf("http://%s/api/status", d.APIAddr()))
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s/api/status", d.APIAddr()), nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get status with token: %v", err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", authed.StatusCode)
	}

	var payload struct {
		Running bool `json:"running"`
	}
	if err := json.NewDecoder(authed.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Running {
		t.Fatal("daemon should report running")
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	d := startTestDaemon(t, "")

	cfg := config.Default()
	cfg.Paths.LogDir = d.cfg.Paths.LogDir
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Telegram.BotToken = "123:abc"
	cfg.Telegram.DestinationChatID = -100
	cfg.Telegram.APIBaseURL = "http://127.0.0.1:1"
	cfg.TMDB.BaseURL = "http://127.0.0.1:1"

	second, err := New(&cfg, d.resolver, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should be refused while the lock is held")
	}
}
