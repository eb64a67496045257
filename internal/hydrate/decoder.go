// Package hydrate turns a flat map of parameter values into a typed struct,
// the shape struct-field bindings hand back to callers.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the invocation whose values are being decoded.
type Context struct {
	Program string
	Style   string
}

// PreHook may rewrite the values before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook may adjust or validate the decoded struct.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts parameter values into T. Map keys are matched against the
// struct's JSON field names.
type Decoder[T any] struct {
	preHooks        []PreHook
	postHooks       []PostHook[T]
	disallowUnknown bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields rejects values that have no matching field in T.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.disallowUnknown = true
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts values into T applying configured hooks. values is not
// modified.
func (d *Decoder[T]) Decode(ctx Context, values map[string]any) (T, error) {
	var zero T
	if values == nil {
		return zero, fmt.Errorf("hydrate: values are nil for program %q", ctx.Program)
	}

	current := make(map[string]any, len(values))
	for k, v := range values {
		current[k] = v
	}
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for program %q failed: %w", ctx.Program, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal values for program %q: %w", ctx.Program, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if d.disallowUnknown {
		decoder.DisallowUnknownFields()
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode program %q: %w", ctx.Program, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for program %q failed: %w", ctx.Program, err)
		}
	}
	return result, nil
}
