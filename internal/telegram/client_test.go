package telegram_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cineref/internal/services"
	"cineref/internal/telegram"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *telegram.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := telegram.New("123:abc", server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := telegram.New("", "https://api.telegram.org", 0); err == nil {
		t.Fatal("expected error when token missing")
	}
}

func TestForwardMessageSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot123:abc/forwardMessage" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("from_chat_id") != "@filmclips" {
			t.Fatalf("from_chat_id = %q", r.PostForm.Get("from_chat_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"video":{"file_id":"vid123","duration":30}}}`))
	})

	msg, err := client.ForwardMessage(context.Background(), "@filmclips", -100555, 42)
	if err != nil {
		t.Fatalf("ForwardMessage returned error: %v", err)
	}
	handle, ok := msg.MediaHandle()
	if !ok || handle != "vid123" {
		t.Fatalf("media handle = %q ok=%v", handle, ok)
	}
}

func TestForwardMessageAccessDenied(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot is not a member of the channel chat"}`))
	})

	_, err := client.ForwardMessage(context.Background(), "@private", -100555, 1)
	if !errors.Is(err, services.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestForwardMessageNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: message to forward not found"}`))
	})

	_, err := client.ForwardMessage(context.Background(), "@filmclips", -100555, 99999)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestForwardMessageRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 5"}`))
	})

	_, err := client.ForwardMessage(context.Background(), "@filmclips", -100555, 1)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestGetFileAndURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot123:abc/getFile" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"vid123","file_size":1048576,"file_path":"videos/file_7.mp4"}}`))
	})

	file, err := client.GetFile(context.Background(), "vid123")
	if err != nil {
		t.Fatalf("GetFile returned error: %v", err)
	}
	if file.FilePath != "videos/file_7.mp4" {
		t.Fatalf("file path = %q", file.FilePath)
	}
	url := client.FileURL(file.FilePath)
	if want := "/file/bot123:abc/videos/file_7.mp4"; len(url) < len(want) || url[len(url)-len(want):] != want {
		t.Fatalf("file url = %q, want suffix %q", url, want)
	}
}

func TestGetFileEmptyID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	if _, err := client.GetFile(context.Background(), " "); !errors.Is(err, services.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestMediaHandlePrefersVideoThenLargestPhoto(t *testing.T) {
	msg := &telegram.Message{
		Photo: []telegram.PhotoSize{
			{FileID: "small", Width: 90},
			{FileID: "large", Width: 1280},
		},
	}
	handle, ok := msg.MediaHandle()
	if !ok || handle != "large" {
		t.Fatalf("photo handle = %q ok=%v", handle, ok)
	}

	msg.Video = &telegram.Video{FileID: "vid"}
	handle, ok = msg.MediaHandle()
	if !ok || handle != "vid" {
		t.Fatalf("video handle = %q ok=%v", handle, ok)
	}
}
