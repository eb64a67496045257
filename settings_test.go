package params

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/google/go-cmp/cmp"
)

func kmeansStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(StyleFlag)
	defs := []Definition{
		Define(Param{Name: "clusters", Alias: "c"}, 3),
		Define(Param{Name: "max_iterations", Alias: "m"}, 1000),
		Define(Param{Name: "initial_centroids"}, [][]float64{{0, 0}, {1, 1}}),
		Define(Param{Name: "algorithm", Alias: "a"}, "naive"),
		Define(Param{Name: "labels_only"}, false),
	}
	if err := store.Install(defs...); err != nil {
		t.Fatalf("install: %v", err)
	}
	return store
}

func TestSettingsCacheRestoreResetsValuesAndFlags(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings()
	live := kmeansStore(t)
	want := live.Clone().Values()

	if err := settings.Cache(ctx, "kmeans", live); err != nil {
		t.Fatalf("cache: %v", err)
	}

	if err := SetInput(live, "clusters", 8); err != nil {
		t.Fatalf("set clusters: %v", err)
	}
	if err := SetInput(live, "algorithm", "elkan"); err != nil {
		t.Fatalf("set algorithm: %v", err)
	}
	centroids := MustGet[[][]float64](live, "initial_centroids")
	(*centroids)[0][0] = 42
	if err := live.MarkPassed("labels_only"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	for round := 0; round < 2; round++ {
		if err := settings.Restore(ctx, "kmeans", live); err != nil {
			t.Fatalf("restore %d: %v", round, err)
		}
		if diff := cmp.Diff(want, live.Values()); diff != "" {
			t.Fatalf("restored values mismatch (-want +got):\n%s", diff)
		}
		for name, passed := range live.PassedSet() {
			if passed {
				t.Fatalf("expected %s passed flag cleared after restore", name)
			}
		}
		if err := SetInput(live, "clusters", 99); err != nil {
			t.Fatalf("set clusters: %v", err)
		}
	}

	meta, ok, err := settings.Meta(ctx, "kmeans")
	if err != nil || !ok {
		t.Fatalf("meta: ok=%v err=%v", ok, err)
	}
	if meta.Restores != 2 || meta.SnapshotID == "" || meta.Extra["binding"] != "flag" {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestSettingsCacheIgnoresPassedFlags(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings()
	live := kmeansStore(t)
	if err := SetInput(live, "clusters", 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := settings.Cache(ctx, "kmeans", live); err != nil {
		t.Fatalf("cache: %v", err)
	}
	if !live.IsPassed("clusters") {
		t.Fatalf("cache must not touch the live store")
	}

	fresh := NewStore(StyleFlag)
	if err := settings.Restore(ctx, "kmeans", fresh); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if fresh.IsPassed("clusters") {
		t.Fatalf("expected restored snapshot without passed flags")
	}
	if got := *MustGet[int](fresh, "clusters"); got != 5 {
		t.Fatalf("expected cached value 5, got %d", got)
	}
}

func TestSettingsRestoreKeepsLiveBindingStyle(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings()
	if err := settings.Cache(ctx, "kmeans", kmeansStore(t)); err != nil {
		t.Fatalf("cache: %v", err)
	}
	live := NewStore(StyleKeyword)
	if err := settings.Restore(ctx, "kmeans", live); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if live.BindingStyle() != StyleKeyword || live.Label("clusters") != "clusters" {
		t.Fatalf("expected restore to keep the keyword binding, got %s", live.BindingStyle())
	}
}

func TestSettingsRestoreUnknownProgram(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings()
	live := kmeansStore(t)

	err := settings.Restore(ctx, "pca", live)
	if !errors.Is(err, ErrUnknownProgram) {
		t.Fatalf("expected ErrUnknownProgram before cache, got %v", err)
	}
	var unknown UnknownProgramError
	if !errors.As(err, &unknown) || unknown.Program != "pca" {
		t.Fatalf("expected UnknownProgramError for pca, got %v", err)
	}

	if err := settings.Cache(ctx, "pca", live); err != nil {
		t.Fatalf("cache: %v", err)
	}
	if !settings.Has(ctx, "pca") {
		t.Fatalf("expected snapshot after cache")
	}
	if err := settings.Clear(ctx, "pca"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := settings.Clear(ctx, "pca"); err != nil {
		t.Fatalf("second clear must be a no-op, got %v", err)
	}
	if err := settings.Restore(ctx, "pca", live); !errors.Is(err, ErrUnknownProgram) {
		t.Fatalf("expected ErrUnknownProgram after clear, got %v", err)
	}
}

func TestSettingsRecacheOverwrites(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings()
	live := kmeansStore(t)
	if err := settings.Cache(ctx, "kmeans", live); err != nil {
		t.Fatalf("cache: %v", err)
	}
	first, _, _ := settings.Meta(ctx, "kmeans")

	if err := Set(live, "clusters", 6); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := settings.Cache(ctx, "kmeans", live); err != nil {
		t.Fatalf("recache: %v", err)
	}
	second, _, _ := settings.Meta(ctx, "kmeans")
	if first.SnapshotID == second.SnapshotID {
		t.Fatalf("expected a new snapshot id on recache")
	}

	restored := NewStore(StyleFlag)
	if err := settings.Restore(ctx, "kmeans", restored); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := *MustGet[int](restored, "clusters"); got != 6 {
		t.Fatalf("expected recached value 6, got %d", got)
	}
}

func TestSettingsNamespacesAndPrograms(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings(WithNamespace("cli"))
	for _, id := range []string{"pca", "kmeans"} {
		if err := settings.Cache(ctx, id, kmeansStore(t)); err != nil {
			t.Fatalf("cache %s: %v", id, err)
		}
	}
	programs, err := settings.Programs(ctx)
	if err != nil {
		t.Fatalf("programs: %v", err)
	}
	if diff := cmp.Diff([]string{"kmeans", "pca"}, programs); diff != "" {
		t.Fatalf("programs mismatch (-want +got):\n%s", diff)
	}

	if err := settings.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if programs, _ := settings.Programs(ctx); len(programs) != 0 {
		t.Fatalf("expected no programs after ClearAll, got %v", programs)
	}

	if err := settings.Cache(ctx, "bad/id", kmeansStore(t)); err == nil {
		t.Fatalf("expected invalid program id error")
	}
	if err := settings.Cache(ctx, "", kmeansStore(t)); err == nil {
		t.Fatalf("expected empty program id error")
	}
}

func TestSettingsSharedStateStore(t *testing.T) {
	ctx := context.Background()
	backend := NewSettings().store
	flags := NewSettings(WithStateStore(backend), WithNamespace("flag"))
	keywords := NewSettings(WithStateStore(backend), WithNamespace("keyword"))

	if err := flags.Cache(ctx, "knn", kmeansStore(t)); err != nil {
		t.Fatalf("cache: %v", err)
	}
	if keywords.Has(ctx, "knn") {
		t.Fatalf("namespaces must not see each other's snapshots")
	}
	if err := keywords.Restore(ctx, "knn", NewStore(StyleKeyword)); !errors.Is(err, ErrUnknownProgram) {
		t.Fatalf("expected ErrUnknownProgram across namespaces, got %v", err)
	}
}

func TestSettingsEmitsActivityAndLogs(t *testing.T) {
	ctx := context.Background()
	hook := &activity.CaptureHook{}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	settings := NewSettings(
		WithSettingsActivity(activity.Hooks{hook}, "cli"),
		WithSettingsLogger(logger),
	)
	live := kmeansStore(t)

	if err := settings.Cache(ctx, "kmeans", live); err != nil {
		t.Fatalf("cache: %v", err)
	}
	if err := settings.Restore(ctx, "kmeans", live); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := settings.Clear(ctx, "kmeans"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	events := hook.Events()
	for _, event := range events {
		if event.ObjectType != activity.ObjectSettings || event.ObjectID != "kmeans" || event.Channel != "cli" {
			t.Fatalf("unexpected event %+v", event)
		}
	}
	want := []string{activity.VerbSettingsCached, activity.VerbSettingsRestored, activity.VerbSettingsCleared}
	if diff := cmp.Diff(want, hook.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
	if events[1].Metadata["restores"] != 1 {
		t.Fatalf("expected restore count on event, got %v", events[1].Metadata)
	}
	if events[0].Binding != live.BindingStyle().String() {
		t.Fatalf("expected binding on cached event, got %q", events[0].Binding)
	}

	output := buf.String()
	for _, msg := range []string{"params: settings cached", "params: settings restored", "params: settings cleared"} {
		if !strings.Contains(output, msg) {
			t.Fatalf("expected %q logged, got:\n%s", msg, output)
		}
	}
}

func TestSettingsIndependentProgramsConcurrently(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings()
	programs := []string{"pca", "kmeans", "knn", "nbc", "lars", "emst"}

	stores := make([]*Store, len(programs))
	for i := range programs {
		stores[i] = kmeansStore(t)
	}

	var wg sync.WaitGroup
	for i, id := range programs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			live := stores[i]
			if err := Set(live, "clusters", i); err != nil {
				t.Errorf("set %s: %v", id, err)
				return
			}
			if err := settings.Cache(ctx, id, live); err != nil {
				t.Errorf("cache %s: %v", id, err)
				return
			}
			restored := NewStore(StyleFlag)
			if err := settings.Restore(ctx, id, restored); err != nil {
				t.Errorf("restore %s: %v", id, err)
				return
			}
			if got := *MustGet[int](restored, "clusters"); got != i {
				t.Errorf("%s: expected clusters %d, got %d", id, i, got)
			}
		}(i, id)
	}
	wg.Wait()
}
