package params

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/state"
	"github.com/google/uuid"
)

// Settings keeps one parameter snapshot per program id so repeated
// invocations in one process start from the registered defaults.
//
// Lifecycle per id: Cache stores a deep copy; Restore replaces a live store's
// contents with a fresh copy of the snapshot and clears every passed flag;
// Clear drops the snapshot so a later Restore fails until Cache runs again.
type Settings struct {
	mu        sync.Mutex
	store     state.Store[*Store]
	namespace string
	logger    *slog.Logger
	emitter   *activity.Emitter
	now       func() time.Time
}

// SettingsOption configures Settings.
type SettingsOption func(*Settings)

// WithStateStore replaces the in-memory snapshot storage.
func WithStateStore(store state.Store[*Store]) SettingsOption {
	return func(s *Settings) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNamespace scopes snapshot keys, e.g. per binding.
func WithNamespace(namespace string) SettingsOption {
	return func(s *Settings) {
		s.namespace = strings.TrimSpace(namespace)
	}
}

// WithSettingsLogger sets the logger for cache, restore and clear messages.
func WithSettingsLogger(logger *slog.Logger) SettingsOption {
	return func(s *Settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSettingsActivity emits settings lifecycle events to hooks.
func WithSettingsActivity(hooks activity.Hooks, channel string) SettingsOption {
	return func(s *Settings) {
		hooks = hooks.Compact()
		if len(hooks) == 0 {
			s.emitter = nil
			return
		}
		s.emitter = activity.NewEmitter(hooks, activity.Config{
			Enabled: true,
			Channel: channel,
			Now:     func() time.Time { return s.now() },
		})
	}
}

// NewSettings returns an empty snapshot manager.
func NewSettings(opts ...SettingsOption) *Settings {
	s := &Settings{
		store:  state.NewMemoryStore[*Store](),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Cache stores a deep copy of live under id. Caching again overwrites the
// previous snapshot.
func (s *Settings) Cache(ctx context.Context, id string, live *Store) error {
	if live == nil {
		return fmt.Errorf("params: cache %q: live store is nil", id)
	}
	ref, err := s.ref(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	meta := state.Meta{
		SnapshotID: uuid.NewString(),
		CachedAt:   s.now(),
		Extra: map[string]string{
			"binding": live.BindingStyle().String(),
		},
	}
	snapshot := live.Clone()
	snapshot.ResetPassed()
	saved, err := s.store.Save(ctx, ref, snapshot, meta)
	if err != nil {
		return fmt.Errorf("params: cache %q: %w", id, err)
	}

	s.logger.DebugContext(ctx, "params: settings cached",
		slog.String("program", ref.Program),
		slog.String("snapshot_id", saved.SnapshotID),
		slog.Int("params", snapshot.Len()),
	)
	emitSettingsEvent(ctx, s.emitter, s.logger, activity.BuildSettingsCachedEvent(activity.SettingsEventInput{
		Program:    ref.Program,
		Binding:    live.BindingStyle().String(),
		SnapshotID: saved.SnapshotID,
		Params:     snapshot.Names(),
	}))
	return nil
}

// Restore replaces the contents of live with a deep copy of the snapshot for
// id and clears every passed flag. live keeps its binding style. It returns
// an UnknownProgramError when nothing is cached for id.
func (s *Settings) Restore(ctx context.Context, id string, live *Store) error {
	if live == nil {
		return fmt.Errorf("params: restore %q: live store is nil", id)
	}
	ref, err := s.ref(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, meta, ok, err := s.store.Load(ctx, ref)
	if err != nil {
		return fmt.Errorf("params: restore %q: %w", id, err)
	}
	if !ok || snapshot == nil {
		return UnknownProgramError{Program: ref.Program}
	}

	live.replaceWith(snapshot.Clone())
	live.ResetPassed()

	_, updated, err := state.Update(ctx, s.store, ref, meta.ETag, func(_ **Store, m *state.Meta) error {
		m.Restores++
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "params: restore counter not updated",
			slog.String("program", ref.Program),
			slog.Any("error", err),
		)
	} else {
		meta = updated
	}

	s.logger.DebugContext(ctx, "params: settings restored",
		slog.String("program", ref.Program),
		slog.String("snapshot_id", meta.SnapshotID),
		slog.Int("restores", meta.Restores),
	)
	emitSettingsEvent(ctx, s.emitter, s.logger, activity.BuildSettingsRestoredEvent(activity.SettingsEventInput{
		Program:    ref.Program,
		Binding:    live.BindingStyle().String(),
		SnapshotID: meta.SnapshotID,
		Restores:   meta.Restores,
	}))
	return nil
}

// Clear drops the snapshot for id. Clearing an unknown id is a no-op.
func (s *Settings) Clear(ctx context.Context, id string) error {
	ref, err := s.ref(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.store.Delete(ctx, ref)
	if err != nil {
		return fmt.Errorf("params: clear %q: %w", id, err)
	}
	if !removed {
		return nil
	}

	s.logger.DebugContext(ctx, "params: settings cleared", slog.String("program", ref.Program))
	emitSettingsEvent(ctx, s.emitter, s.logger, activity.BuildSettingsClearedEvent(activity.SettingsEventInput{
		Program: ref.Program,
	}))
	return nil
}

// ClearAll drops every snapshot in the settings namespace.
func (s *Settings) ClearAll(ctx context.Context) error {
	programs, err := s.Programs(ctx)
	if err != nil {
		return err
	}
	for _, id := range programs {
		if err := s.Clear(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether a snapshot is cached for id.
func (s *Settings) Has(ctx context.Context, id string) bool {
	_, ok, err := s.Meta(ctx, id)
	return err == nil && ok
}

// Meta returns the storage metadata for id.
func (s *Settings) Meta(ctx context.Context, id string) (state.Meta, bool, error) {
	ref, err := s.ref(id)
	if err != nil {
		return state.Meta{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, meta, ok, err := s.store.Load(ctx, ref)
	if err != nil {
		return state.Meta{}, false, fmt.Errorf("params: meta %q: %w", id, err)
	}
	return meta, ok, nil
}

// Programs returns the ids with a cached snapshot in this namespace.
func (s *Settings) Programs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs, err := s.store.Refs(ctx)
	if err != nil {
		return nil, fmt.Errorf("params: list programs: %w", err)
	}
	namespace := s.refNamespace()
	programs := make([]string, 0, len(refs))
	for _, ref := range refs {
		ns := ref.Namespace
		if ns == "" {
			ns = state.DefaultNamespace
		}
		if ns == namespace {
			programs = append(programs, ref.Program)
		}
	}
	return programs, nil
}

func (s *Settings) ref(id string) (state.Ref, error) {
	ref := state.Ref{Namespace: s.namespace, Program: strings.TrimSpace(id)}
	if _, err := ref.Identifier(); err != nil {
		return state.Ref{}, fmt.Errorf("params: invalid program id %q: %w", id, err)
	}
	return ref, nil
}

func (s *Settings) refNamespace() string {
	if s.namespace == "" {
		return state.DefaultNamespace
	}
	return s.namespace
}
