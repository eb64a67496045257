package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("state: snapshot not found")

var ErrETagMismatch = errors.New("state: etag mismatch")

// DefaultNamespace is used when a Ref leaves Namespace empty.
const DefaultNamespace = "params"

// Ref identifies one persisted snapshot for one program.
type Ref struct {
	Namespace string
	Program   string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	CachedAt   time.Time         `json:"cached_at,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Restores   int               `json:"restores,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads, saves and deletes one snapshot for a single reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
	Delete(ctx context.Context, ref Ref) (bool, error)
	Refs(ctx context.Context) ([]Ref, error)
}

// Validator is implemented by snapshots that can check themselves before
// Update saves them.
type Validator interface {
	Validate() error
}

// Mutator changes a loaded snapshot and its metadata in place.
type Mutator[T any] func(snapshot *T, meta *Meta) error

// Identifier returns the canonical storage key for r.
func (r Ref) Identifier() (string, error) {
	program := strings.TrimSpace(r.Program)
	if program == "" {
		return "", fmt.Errorf("state: program is required")
	}
	if strings.Contains(program, "/") {
		return "", fmt.Errorf("state: program %q must not contain '/'", program)
	}
	namespace := strings.TrimSpace(r.Namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + "/" + program, nil
}

// Update loads the snapshot for ref, applies fn, validates and saves it. The
// expected ETag, when set, must match the stored one.
func Update[T any](ctx context.Context, store Store[T], ref Ref, expectETag string, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, meta, ok, err := store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load %q: %w", ref.Program, err)
	}
	if !ok {
		return zero, Meta{}, fmt.Errorf("%w: %s", ErrNotFound, ref.Program)
	}
	if expectETag != "" && meta.ETag != "" && expectETag != meta.ETag {
		return zero, meta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expectETag, meta.ETag)
	}

	next := cloneMeta(meta)
	if err := fn(&snapshot, &next); err != nil {
		return zero, meta, err
	}
	if v, ok := any(snapshot).(Validator); ok {
		if err := v.Validate(); err != nil {
			return zero, meta, err
		}
	}

	saved, err := store.Save(ctx, ref, snapshot, mergeMeta(meta, next))
	if err != nil {
		return zero, meta, fmt.Errorf("state: save %q: %w", ref.Program, err)
	}
	return snapshot, saved, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.CachedAt.IsZero() {
		out.CachedAt = override.CachedAt
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Restores != 0 {
		out.Restores = override.Restores
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
