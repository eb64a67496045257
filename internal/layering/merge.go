// Package layering merges keyword argument layers, e.g. values read from a
// configuration file underneath explicit caller arguments.
package layering

import "github.com/goliatone/go-params/internal/clone"

// Merge composes layers ordered from strongest to weakest. Keys present in a
// stronger layer win; nested maps are merged key by key. The result never
// shares maps or slices with the inputs.
func Merge(layers ...map[string]any) map[string]any {
	merged := map[string]any{}
	for i := len(layers) - 1; i >= 0; i-- {
		merged = mergeInto(merged, layers[i])
	}
	return merged
}

// mergeInto overlays strong on top of weak, returning weak.
func mergeInto(weak, strong map[string]any) map[string]any {
	for key, value := range strong {
		strongMap, ok := value.(map[string]any)
		if !ok {
			weak[key] = clone.Value(value)
			continue
		}
		weakMap, ok := weak[key].(map[string]any)
		if !ok {
			weak[key] = clone.Value(strongMap)
			continue
		}
		weak[key] = mergeInto(weakMap, strongMap)
	}
	return weak
}
