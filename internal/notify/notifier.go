// Package notify delivers alert bodies to the configured outbound channel.
// Delivery is fire-and-forget: failures are logged by the caller and never
// retried, and a failed delivery still counts as fired for gating purposes.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Notifier is a single outbound channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Chunked splits oversized bodies at the configured length boundary and
// delivers each part separately, annotated with a "(parte i/n)" suffix when
// more than one chunk exists.
type Chunked struct {
	next   Notifier
	maxLen int
}

// NewChunked wraps a notifier with length-based fragmentation.
func NewChunked(next Notifier, maxLen int) *Chunked {
	if maxLen <= 0 {
		maxLen = 3500
	}
	return &Chunked{next: next, maxLen: maxLen}
}

func (c *Chunked) Send(ctx context.Context, text string) error {
	parts := Chunks(text, c.maxLen)
	var lastErr error
	for i, part := range parts {
		if len(parts) > 1 {
			part = fmt.Sprintf("%s (parte %d/%d)", part, i+1, len(parts))
		}
		if err := c.next.Send(ctx, part); err != nil {
			// Keep delivering the remaining parts.
			lastErr = err
		}
	}
	return lastErr
}

// Chunks splits text into maxLen-sized pieces, at least one.
func Chunks(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	for i := 0; i < len(text); i += maxLen {
		end := i + maxLen
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[i:end])
	}
	return parts
}

// LogNotifier writes the body to the log, used when no outbound channel is
// configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n *LogNotifier) Send(_ context.Context, text string) error {
	n.Logger.Info().Msg(text)
	return nil
}
