package reference

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"cineref/internal/services"
)

// Kind identifies the shape of a classified content reference.
type Kind string

const (
	KindPublicPost  Kind = "public_post"
	KindPrivatePost Kind = "private_post"
	KindDirectURL   Kind = "direct_url"
	KindUpload      Kind = "upload"
)

// ContentReference is the immutable result of classifying raw user input.
// Exactly the fields relevant to Kind are populated.
type ContentReference struct {
	Kind          Kind
	ChannelHandle string // public post links
	ChannelID     int64  // private post links, platform internal id
	MessageID     int
	URL           string // direct URLs, query string preserved
	LocalPath     string // uploaded files
}

// privateChannelOffset converts the numeric id embedded in /c/ post links
// into the platform's internal channel id. The transform is platform
// behavior observed in the wild, not documented; do not alter it.
const privateChannelOffset = -1000000000000

var handlePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

// Classify parses raw user input into a ContentReference. uploadPath, when
// non-empty, names a local file accompanying the request and is used only
// when the string itself matches no known link format. Classification is
// pure parsing; no network calls are made.
func Classify(raw, uploadPath string) (ContentReference, error) {
	trimmed := strings.TrimSpace(raw)

	if ref, ok := classifyPostLink(trimmed); ok {
		return ref, nil
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return ContentReference{Kind: KindDirectURL, URL: trimmed}, nil
	}

	if strings.TrimSpace(uploadPath) != "" {
		return ContentReference{Kind: KindUpload, LocalPath: strings.TrimSpace(uploadPath)}, nil
	}

	return ContentReference{}, services.Wrap(services.ErrInvalidReference, "reference", "classify", "unrecognized format", nil)
}

// classifyPostLink matches the private (/c/<numeric>/<id>) and public
// (/<handle>/<id>) post link shapes. The scheme is optional and query or
// fragment suffixes are ignored so pasted links classify identically.
func classifyPostLink(trimmed string) (ContentReference, bool) {
	if trimmed == "" {
		return ContentReference{}, false
	}

	candidate := trimmed
	if idx := strings.IndexAny(candidate, "?#"); idx >= 0 {
		candidate = candidate[:idx]
	}
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" || !strings.Contains(u.Host, ".") {
		return ContentReference{}, false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch len(segments) {
	case 3:
		if segments[0] != "c" {
			return ContentReference{}, false
		}
		channelRaw, err := strconv.ParseInt(segments[1], 10, 64)
		if err != nil || channelRaw <= 0 {
			return ContentReference{}, false
		}
		messageID, err := strconv.Atoi(segments[2])
		if err != nil || messageID <= 0 {
			return ContentReference{}, false
		}
		return ContentReference{
			Kind:      KindPrivatePost,
			ChannelID: privateChannelOffset - channelRaw,
			MessageID: messageID,
		}, true
	case 2:
		if !handlePattern.MatchString(segments[0]) {
			return ContentReference{}, false
		}
		messageID, err := strconv.Atoi(segments[1])
		if err != nil || messageID <= 0 {
			return ContentReference{}, false
		}
		return ContentReference{
			Kind:          KindPublicPost,
			ChannelHandle: segments[0],
			MessageID:     messageID,
		}, true
	default:
		return ContentReference{}, false
	}
}
