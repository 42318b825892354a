package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cineref/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New("test-key", server.URL, "en-US", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestSearchMovieWithOptionsSendsYearFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("query") != "Nightfall" {
			t.Fatalf("query = %q", query.Get("query"))
		}
		if query.Get("primary_release_year") != "2019" {
			t.Fatalf("primary_release_year = %q", query.Get("primary_release_year"))
		}
		if query.Get("api_key") != "test-key" {
			t.Fatalf("api_key = %q", query.Get("api_key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page":1,"results":[{"id":550,"title":"Nightfall","release_date":"2019-08-14","overview":"A thriller."}],"total_results":1}`))
	})

	resp, err := client.SearchMovieWithOptions(context.Background(), "Nightfall", SearchOptions{Year: 2019})
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d", len(resp.Results))
	}
	if got := resp.Results[0].ReleaseYear(); got != 2019 {
		t.Fatalf("release year = %d", got)
	}
}

func TestSearchMovieRejectsEmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	if _, err := client.SearchMovie(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestFindByIMDbID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find/tt0137523" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("external_source"); got != "imdb_id" {
			t.Fatalf("external_source = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"movie_results":[{"id":550,"title":"Fight Club","release_date":"1999-10-15"}]}`))
	})

	result, err := client.FindByIMDbID(context.Background(), "tt0137523")
	if err != nil {
		t.Fatalf("find returned error: %v", err)
	}
	if result.Title != "Fight Club" || result.MediaType != "movie" {
		t.Fatalf("result = %+v", result)
	}
}

func TestFindByIMDbIDNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"movie_results":[]}`))
	})

	_, err := client.FindByIMDbID(context.Background(), "tt9999999")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByIMDbIDRejectsMalformedID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	if _, err := client.FindByIMDbID(context.Background(), "0137523"); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestRateLimitClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.SearchMovie(context.Background(), "Nightfall")
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestServerErrorClassifiedTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SearchMovie(context.Background(), "Nightfall")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestWithTimeoutBoundsRequests(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := New("test-key", server.URL, "", WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.SearchMovie(context.Background(), "Nightfall")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestUnauthorizedClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.SearchMovie(context.Background(), "Nightfall")
	if !errors.Is(err, services.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}
