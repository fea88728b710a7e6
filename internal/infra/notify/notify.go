// Package notify delivers alert messages to a chat.
package notify

import (
	"context"
	"errors"
)

var ErrMediaUnavailable = errors.New("media file unavailable")

// MediaKind is the attachment of a message.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	default:
		return "none"
	}
}

// Message is one outgoing notification. With media attached, Text is sent
// as the caption.
type Message struct {
	Text      string
	Markdown  bool
	Media     MediaKind
	MediaPath string
}

// Sink is a notification channel.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}
