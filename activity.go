package params

import (
	"context"
	"log/slog"
	"strings"

	"github.com/goliatone/go-params/pkg/activity"
)

// WithActivityHooks attaches activity hooks that receive constraint
// diagnostics. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on activity events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.activityChannel = strings.TrimSpace(channel)
	}
}

func (cfg config) activityEmitter() *activity.Emitter {
	if len(cfg.activityHooks) == 0 {
		return nil
	}
	return activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: true,
		Channel: cfg.activityChannel,
	})
}

func (c *Checker) emitDiagnostic(d Diagnostic) {
	if !c.emitter.Enabled() {
		return
	}
	input := activity.ConstraintEventInput{
		Program:    c.cfg.program,
		Binding:    c.store.BindingStyle().String(),
		Constraint: d.Constraint,
		Params:     d.Params,
		Message:    d.Message,
		Fatal:      d.Fatal(),
	}
	event := activity.BuildConstraintViolatedEvent(input)
	if d.Constraint == KindIgnored {
		event = activity.BuildParamIgnoredEvent(input)
	}
	if err := c.emitter.Emit(c.ctx, event); err != nil {
		slog.Default().LogAttrs(c.ctx, slog.LevelWarn, "params: activity hook failed",
			slog.String("verb", event.Verb),
			slog.Any("error", err),
		)
	}
}

func emitSettingsEvent(ctx context.Context, emitter *activity.Emitter, logger *slog.Logger, event activity.Event) {
	if !emitter.Enabled() {
		return
	}
	if err := emitter.Emit(ctx, event); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "params: activity hook failed",
			slog.String("verb", event.Verb),
			slog.Any("error", err),
		)
	}
}
