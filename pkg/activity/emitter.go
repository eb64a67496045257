package activity

import (
	"context"
	"strings"
	"time"
)

// Config controls how an Emitter stamps events.
type Config struct {
	Enabled bool
	// Channel is applied to events without one. Defaults to DefaultChannel.
	Channel string
	// Now stamps OccurredAt on events without one. Defaults to time.Now.
	Now func() time.Time
}

// Emitter forwards parameter events to hooks after filling in the channel
// and timestamp. A nil Emitter is disabled.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	now     func() time.Time
}

// NewEmitter constructs an emitter from hooks and configuration. It is
// disabled when cfg.Enabled is false or no non-nil hook is given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	compact := hooks.Compact()
	return &Emitter{
		hooks:   compact,
		enabled: cfg.Enabled && len(compact) > 0,
		channel: channel,
		now:     now,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards the event to all hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	return e.hooks.Notify(ctx, event)
}
