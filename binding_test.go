package params

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func knnStore(t *testing.T, style BindingStyle) *Store {
	t.Helper()
	s := NewStore(style)
	must(t, Add(s, Param{Name: "reference", Alias: "r"}, [][]float64(nil)))
	must(t, Add(s, Param{Name: "k", Alias: "k"}, 1))
	must(t, Add(s, Param{Name: "algorithm", Alias: "a"}, "dual_tree"))
	must(t, Add(s, Param{Name: "tuning"}, map[string]any{"leaf_size": 20}))
	must(t, Add(s, Param{Name: "neighbors", Alias: "n", Output: true}, [][]int(nil)))
	must(t, Add(s, Param{Name: "distances", Alias: "d", Output: true}, [][]float64(nil)))
	return s
}

func TestBindKeywordsLayers(t *testing.T) {
	s := knnStore(t, StyleKeyword)
	file := map[string]any{
		"algorithm": "naive",
		"k":         5,
		"tuning":    map[string]any{"leaf_size": 40, "epsilon": 0.1},
	}
	args := map[string]any{
		"r":      [][]float64{{0, 1}},
		"k":      3,
		"tuning": map[string]any{"leaf_size": 10},
	}

	must(t, BindKeywords(s, args, file))

	if got := *MustGet[int](s, "k"); got != 3 {
		t.Fatalf("expected k=3, got %d", got)
	}
	if got := *MustGet[string](s, "algorithm"); got != "naive" {
		t.Fatalf("expected algorithm naive, got %q", got)
	}
	wantTuning := map[string]any{"leaf_size": 10, "epsilon": 0.1}
	if got := *MustGet[map[string]any](s, "tuning"); !reflect.DeepEqual(got, wantTuning) {
		t.Fatalf("expected tuning %v, got %v", wantTuning, got)
	}
	if got := *MustGet[[][]float64](s, "reference"); !reflect.DeepEqual(got, [][]float64{{0, 1}}) {
		t.Fatalf("unexpected reference %v", got)
	}
	for _, name := range []string{"reference", "k", "algorithm", "tuning"} {
		if !s.IsPassed(name) {
			t.Fatalf("expected %s to be passed", name)
		}
	}
	if s.IsPassed("neighbors") {
		t.Fatalf("neighbors was never bound")
	}
}

func TestBindKeywordsErrors(t *testing.T) {
	s := knnStore(t, StyleKeyword)

	if err := BindKeywords(s, map[string]any{"leaf": 3}); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
	if err := BindKeywords(s, map[string]any{"k": "three"}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}

	err := BindKeywords(s, map[string]any{"k": 3}, map[string]any{"k": 4, "a": "naive", "algorithm": "greedy"})
	if err == nil {
		t.Fatalf("expected error when a name and its alias are both bound")
	}
	if errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("alias collision must not read as an unknown parameter: %v", err)
	}
}

func TestBindKeywordsFailureLeavesStoreUntouched(t *testing.T) {
	s := knnStore(t, StyleKeyword)

	// "algorithm" sorts and registers before "k", so a bind that wrote as it
	// went would already have changed it.
	err := BindKeywords(s, map[string]any{
		"algorithm": "greedy",
		"reference": [][]float64{{1}},
		"k":         "three",
	})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}

	if got := *MustGet[string](s, "algorithm"); got != "dual_tree" {
		t.Fatalf("algorithm changed to %q by a failed bind", got)
	}
	if got := *MustGet[[][]float64](s, "reference"); got != nil {
		t.Fatalf("reference changed to %v by a failed bind", got)
	}
	for name, passed := range s.PassedSet() {
		if passed {
			t.Fatalf("%s marked passed by a failed bind", name)
		}
	}
}

type knnResult struct {
	Neighbors [][]int
	Distances [][]float64
}

func TestOutputsDecodeFieldLabels(t *testing.T) {
	program := &Program{
		ID: "knn",
		Params: []Definition{
			Define(Param{Name: "reference", Alias: "r", Required: true}, [][]float64(nil)),
			Define(Param{Name: "neighbors", Alias: "n", Output: true}, [][]int(nil)),
			Define(Param{Name: "distances", Alias: "d", Output: true}, [][]float64(nil)),
		},
		Run: func(_ context.Context, s *Store) error {
			if err := Set(s, "neighbors", [][]int{{1}, {0}}); err != nil {
				return err
			}
			return Set(s, "distances", [][]float64{{0.5}, {0.5}})
		},
	}

	runner := NewRunner(nil, WithSink(&CaptureSink{}), WithRequiredCheck(true))
	result, live, err := runner.Execute(context.Background(), program, StyleField, func(s *Store) error {
		return BindKeywords(s, map[string]any{"reference": [][]float64{{0}, {1}}})
	})
	must(t, err)
	if !result.Ran {
		t.Fatalf("expected the program body to run")
	}

	out, err := Outputs[knnResult](program, live)
	must(t, err)
	want := knnResult{
		Neighbors: [][]int{{1}, {0}},
		Distances: [][]float64{{0.5}, {0.5}},
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("expected %+v, got %+v", want, out)
	}

	if _, err := Outputs[knnResult](program, nil); err == nil {
		t.Fatalf("expected error for a nil store")
	}
}
