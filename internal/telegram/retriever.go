package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"cineref/internal/logging"
	"cineref/internal/reference"
	"cineref/internal/services"
)

// API is the Bot API surface the retriever depends on.
type API interface {
	ForwardMessage(ctx context.Context, fromChat string, toChatID int64, messageID int) (*Message, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Retriever obtains the media handle attached to a message the automation
// account cannot read directly. The platform offers no fetch-by-id for
// arbitrary messages, so the retriever re-delivers the target into a chat
// the account controls, reads the attachment descriptor off the copy, and
// deletes the copy. The workaround is isolated here so it can be swapped
// out if the platform ever exposes direct reads.
type Retriever struct {
	api             API
	destinationChat int64
	fallbackChat    int64
	logger          *slog.Logger
}

// NewRetriever constructs a Retriever delivering into destinationChat, with
// an optional fallbackChat tried once when the primary delivery fails.
func NewRetriever(api API, destinationChat, fallbackChat int64, logger *slog.Logger) *Retriever {
	return &Retriever{
		api:             api,
		destinationChat: destinationChat,
		fallbackChat:    fallbackChat,
		logger:          logging.NewComponentLogger(logger, "retriever"),
	}
}

// MediaHandle resolves a post-link reference into the opaque handle of the
// message's media attachment. The delivered copy is deleted best-effort once
// delivery succeeded, regardless of whether extraction does.
func (r *Retriever) MediaHandle(ctx context.Context, ref reference.ContentReference) (string, error) {
	fromChat, err := originChat(ref)
	if err != nil {
		return "", err
	}

	delivered, chatID, err := r.deliver(ctx, fromChat, ref.MessageID)
	if err != nil {
		return "", err
	}
	defer r.cleanup(ctx, chatID, delivered.MessageID)

	handle, ok := delivered.MediaHandle()
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "retriever", "extract", "no media found on message", nil)
	}
	return handle, nil
}

func originChat(ref reference.ContentReference) (string, error) {
	switch ref.Kind {
	case reference.KindPublicPost:
		return "@" + ref.ChannelHandle, nil
	case reference.KindPrivatePost:
		return strconv.FormatInt(ref.ChannelID, 10), nil
	default:
		return "", services.Wrap(services.ErrInvalidReference, "retriever", "deliver", "reference is not a post link", nil)
	}
}

// deliver forwards the target message into the destination chat. A failed
// delivery gets exactly one retry against the fallback chat, and only when
// the failure class permits retrying at all.
func (r *Retriever) deliver(ctx context.Context, fromChat string, messageID int) (*Message, int64, error) {
	delivered, err := r.api.ForwardMessage(ctx, fromChat, r.destinationChat, messageID)
	if err == nil {
		return delivered, r.destinationChat, nil
	}
	if r.fallbackChat == 0 || !services.Retryable(err) {
		return nil, 0, err
	}

	r.logger.Warn("delivery to destination chat failed, trying fallback",
		logging.String("origin", fromChat),
		logging.Int64("fallback_chat", r.fallbackChat),
		logging.Error(err),
	)
	delivered, retryErr := r.api.ForwardMessage(ctx, fromChat, r.fallbackChat, messageID)
	if retryErr != nil {
		return nil, 0, retryErr
	}
	return delivered, r.fallbackChat, nil
}

// cleanup deletes the delivered copy. It runs on a detached context so a
// cancelled or failed request still leaves no artifact behind.
func (r *Retriever) cleanup(ctx context.Context, chatID int64, messageID int) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.api.DeleteMessage(cleanupCtx, chatID, messageID); err != nil {
		r.logger.Warn("failed to delete delivered copy",
			logging.Int64("chat_id", chatID),
			logging.Int("message_id", messageID),
			logging.Error(err),
		)
	}
}
