package state_test

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-params/pkg/state"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[map[string]int]()
	ref := state.Ref{Program: "kmeans"}

	if _, _, ok, err := store.Load(ctx, ref); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	saved, err := store.Save(ctx, ref, map[string]int{"clusters": 3}, state.Meta{
		SnapshotID: "snap-1",
		Extra:      map[string]string{"binding": "flag"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ETag == "" || saved.UpdatedAt.IsZero() {
		t.Fatalf("expected etag and timestamp stamped, got %+v", saved)
	}

	snapshot, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snapshot["clusters"] != 3 || meta.SnapshotID != "snap-1" {
		t.Fatalf("unexpected snapshot %v meta %+v", snapshot, meta)
	}

	meta.Extra["binding"] = "changed"
	_, again, _, _ := store.Load(ctx, ref)
	if again.Extra["binding"] != "flag" {
		t.Fatalf("expected stored metadata isolated from callers, got %v", again.Extra)
	}

	second, err := store.Save(ctx, ref, map[string]int{"clusters": 4}, meta)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if second.ETag == saved.ETag {
		t.Fatalf("expected etag to change on save")
	}
}

func TestMemoryStoreDeleteAndRefs(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[string]()
	for _, program := range []string{"pca", "kmeans", "nbc"} {
		if _, err := store.Save(ctx, state.Ref{Program: program}, program, state.Meta{}); err != nil {
			t.Fatalf("save %s: %v", program, err)
		}
	}

	refs, err := store.Refs(ctx)
	if err != nil {
		t.Fatalf("refs: %v", err)
	}
	if len(refs) != 3 || refs[0].Program != "kmeans" || refs[2].Program != "pca" {
		t.Fatalf("expected refs sorted by identifier, got %+v", refs)
	}

	removed, err := store.Delete(ctx, state.Ref{Program: "nbc"})
	if err != nil || !removed {
		t.Fatalf("expected delete to remove nbc, got removed=%v err=%v", removed, err)
	}
	removed, err = store.Delete(ctx, state.Ref{Program: "nbc"})
	if err != nil || removed {
		t.Fatalf("expected second delete to be a no-op, got removed=%v err=%v", removed, err)
	}
}

func TestMemoryStoreRejectsInvalidRef(t *testing.T) {
	store := state.NewMemoryStore[int]()
	if _, err := store.Save(context.Background(), state.Ref{}, 1, state.Meta{}); err == nil {
		t.Fatalf("expected error for missing program")
	}
}

func TestMemoryStoreConcurrentPrograms(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[int]()
	programs := []string{"a", "b", "c", "d", "e", "f"}

	var wg sync.WaitGroup
	for i, program := range programs {
		wg.Add(1)
		go func(i int, program string) {
			defer wg.Done()
			ref := state.Ref{Program: program}
			if _, err := store.Save(ctx, ref, i, state.Meta{}); err != nil {
				t.Errorf("save %s: %v", program, err)
			}
			if _, _, ok, err := store.Load(ctx, ref); err != nil || !ok {
				t.Errorf("load %s: ok=%v err=%v", program, ok, err)
			}
		}(i, program)
	}
	wg.Wait()

	refs, _ := store.Refs(ctx)
	if len(refs) != len(programs) {
		t.Fatalf("expected %d refs, got %d", len(programs), len(refs))
	}
}
