package notify

import "context"

// Notifier delivers operator-facing messages over a chat channel
type Notifier interface {
	// Send delivers a message to the configured default chat
	Send(ctx context.Context, text string) error

	// SendTo delivers a message to a specific chat (webhook replies)
	SendTo(ctx context.Context, chatID, text string) error

	// Close releases the underlying resources
	Close() error
}

// NoopNotifier drops every message. Used when no chat credentials are
// configured so the pipeline still runs.
type NoopNotifier struct{}

// Send drops the message
func (NoopNotifier) Send(ctx context.Context, text string) error { return nil }

// SendTo drops the message
func (NoopNotifier) SendTo(ctx context.Context, chatID, text string) error { return nil }

// Close is a no-op
func (NoopNotifier) Close() error { return nil }
