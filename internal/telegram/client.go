package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cineref/internal/services"
)

// Message models the subset of a delivered platform message the resolver
// reads: its id and any media attachment descriptors.
type Message struct {
	MessageID int         `json:"message_id"`
	Video     *Video      `json:"video,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Document  *Document   `json:"document,omitempty"`
	Animation *Animation  `json:"animation,omitempty"`
}

// Video describes a video attachment.
type Video struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// PhotoSize describes one rendition of a photo attachment.
type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Document describes a generic file attachment.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

// Animation describes an animation attachment.
type Animation struct {
	FileID string `json:"file_id"`
}

// File is the platform's file descriptor returned by getFile.
type File struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

// MediaHandle returns the opaque file identifier of the message's primary
// media attachment. Videos win over photos; the largest photo rendition is
// used when only photos are present.
func (m *Message) MediaHandle() (string, bool) {
	if m == nil {
		return "", false
	}
	if m.Video != nil && m.Video.FileID != "" {
		return m.Video.FileID, true
	}
	if len(m.Photo) > 0 {
		// The platform lists photo renditions smallest first.
		if id := m.Photo[len(m.Photo)-1].FileID; id != "" {
			return id, true
		}
	}
	if m.Document != nil && m.Document.FileID != "" {
		return m.Document.FileID, true
	}
	if m.Animation != nil && m.Animation.FileID != "" {
		return m.Animation.FileID, true
	}
	return "", false
}

// Client provides access to the platform Bot API methods the resolver uses.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Bot API client.
func New(token, baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram bot token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("telegram api base url required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ForwardMessage re-delivers a message from its origin chat into toChatID and
// returns the delivered copy, attachments included. fromChat accepts either a
// numeric chat id or an @handle.
func (c *Client) ForwardMessage(ctx context.Context, fromChat string, toChatID int64, messageID int) (*Message, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(toChatID, 10))
	params.Set("from_chat_id", fromChat)
	params.Set("message_id", strconv.Itoa(messageID))
	params.Set("disable_notification", "true")

	var message Message
	if err := c.call(ctx, "forwardMessage", params, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// GetFile resolves a media handle into the platform's file descriptor.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, services.Wrap(services.ErrInvalidReference, "telegram", "getFile", "empty file id", nil)
	}
	params := url.Values{}
	params.Set("file_id", fileID)

	var file File
	if err := c.call(ctx, "getFile", params, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, services.Wrap(services.ErrNotFound, "telegram", "getFile", "descriptor carries no file path", nil)
	}
	return &file, nil
}

// DeleteMessage removes a message the bot previously delivered.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("message_id", strconv.Itoa(messageID))

	var deleted bool
	return c.call(ctx, "deleteMessage", params, &deleted)
}

// FileURL converts a getFile descriptor path into a directly fetchable URL.
// The URL's lifetime is owned by the platform, not by this client.
func (c *Client) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, strings.TrimLeft(filePath, "/"))
}

type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values, result any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "telegram", method, "request exceeded budget", err)
		}
		return services.Wrap(services.ErrTransient, "telegram", method, "execute request", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return services.Wrap(services.ErrTransient, "telegram", method, "decode response", err)
	}
	if !envelope.OK {
		return classifyAPIError(method, resp.StatusCode, envelope)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return services.Wrap(services.ErrTransient, "telegram", method, "decode result", err)
		}
	}
	return nil
}

func classifyAPIError(method string, httpStatus int, envelope apiEnvelope) error {
	code := envelope.ErrorCode
	if code == 0 {
		code = httpStatus
	}
	description := strings.TrimSpace(envelope.Description)
	switch {
	case code == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "telegram", method, description, nil)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return services.Wrap(services.ErrAccessDenied, "telegram", method, description, nil)
	case code == http.StatusBadRequest && strings.Contains(strings.ToLower(description), "not found"):
		return services.Wrap(services.ErrNotFound, "telegram", method, description, nil)
	default:
		return services.Wrap(services.ErrTransient, "telegram", method, fmt.Sprintf("api error %d: %s", code, description), nil)
	}
}
