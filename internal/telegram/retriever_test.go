package telegram_test

import (
	"context"
	"errors"
	"testing"

	"cineref/internal/reference"
	"cineref/internal/services"
	"cineref/internal/telegram"
)

type fakeAPI struct {
	forward func(fromChat string, toChatID int64, messageID int) (*telegram.Message, error)

	forwardCalls []int64
	deleteCalls  []struct {
		ChatID    int64
		MessageID int
	}
	deleteErr error
}

func (f *fakeAPI) ForwardMessage(_ context.Context, fromChat string, toChatID int64, messageID int) (*telegram.Message, error) {
	f.forwardCalls = append(f.forwardCalls, toChatID)
	return f.forward(fromChat, toChatID, messageID)
}

func (f *fakeAPI) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.deleteCalls = append(f.deleteCalls, struct {
		ChatID    int64
		MessageID int
	}{chatID, messageID})
	return f.deleteErr
}

func publicRef() reference.ContentReference {
	return reference.ContentReference{
		Kind:          reference.KindPublicPost,
		ChannelHandle: "filmclips",
		MessageID:     42,
	}
}

func TestMediaHandleDeliversAndCleansUp(t *testing.T) {
	api := &fakeAPI{
		forward: func(fromChat string, toChatID int64, messageID int) (*telegram.Message, error) {
			if fromChat != "@filmclips" {
				t.Fatalf("from chat = %q", fromChat)
			}
			return &telegram.Message{MessageID: 7, Video: &telegram.Video{FileID: "vid123"}}, nil
		},
	}
	retriever := telegram.NewRetriever(api, -100555, 0, nil)

	handle, err := retriever.MediaHandle(context.Background(), publicRef())
	if err != nil {
		t.Fatalf("MediaHandle returned error: %v", err)
	}
	if handle != "vid123" {
		t.Fatalf("handle = %q", handle)
	}
	if len(api.deleteCalls) != 1 || api.deleteCalls[0].ChatID != -100555 || api.deleteCalls[0].MessageID != 7 {
		t.Fatalf("unexpected cleanup calls %+v", api.deleteCalls)
	}
}

func TestMediaHandleCleansUpWhenNoMedia(t *testing.T) {
	api := &fakeAPI{
		forward: func(string, int64, int) (*telegram.Message, error) {
			return &telegram.Message{MessageID: 9}, nil
		},
	}
	retriever := telegram.NewRetriever(api, -100555, 0, nil)

	_, err := retriever.MediaHandle(context.Background(), publicRef())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(api.deleteCalls) != 1 {
		t.Fatalf("expected cleanup despite extraction failure, got %+v", api.deleteCalls)
	}
}

func TestMediaHandleFallbackRetry(t *testing.T) {
	api := &fakeAPI{
		forward: func(_ string, toChatID int64, _ int) (*telegram.Message, error) {
			if toChatID == -100555 {
				return nil, services.Wrap(services.ErrTransient, "telegram", "forwardMessage", "chat unavailable", nil)
			}
			return &telegram.Message{MessageID: 3, Video: &telegram.Video{FileID: "vid456"}}, nil
		},
	}
	retriever := telegram.NewRetriever(api, -100555, -100777, nil)

	handle, err := retriever.MediaHandle(context.Background(), publicRef())
	if err != nil {
		t.Fatalf("MediaHandle returned error: %v", err)
	}
	if handle != "vid456" {
		t.Fatalf("handle = %q", handle)
	}
	if len(api.forwardCalls) != 2 {
		t.Fatalf("forward calls = %v, want destination then fallback", api.forwardCalls)
	}
	if api.deleteCalls[0].ChatID != -100777 {
		t.Fatalf("cleanup should target fallback chat, got %+v", api.deleteCalls)
	}
}

func TestMediaHandleAccessDeniedNotRetried(t *testing.T) {
	api := &fakeAPI{
		forward: func(string, int64, int) (*telegram.Message, error) {
			return nil, services.Wrap(services.ErrAccessDenied, "telegram", "forwardMessage", "forbidden", nil)
		},
	}
	retriever := telegram.NewRetriever(api, -100555, -100777, nil)

	_, err := retriever.MediaHandle(context.Background(), publicRef())
	if !errors.Is(err, services.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if len(api.forwardCalls) != 1 {
		t.Fatalf("access denied must not retry, calls = %v", api.forwardCalls)
	}
	if len(api.deleteCalls) != 0 {
		t.Fatalf("no delivery happened, cleanup calls = %+v", api.deleteCalls)
	}
}

func TestMediaHandleRejectsDirectURLReference(t *testing.T) {
	retriever := telegram.NewRetriever(&fakeAPI{}, -100555, 0, nil)
	_, err := retriever.MediaHandle(context.Background(), reference.ContentReference{
		Kind: reference.KindDirectURL,
		URL:  "https://cdn.example.com/a.mp4",
	})
	if !errors.Is(err, services.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}
