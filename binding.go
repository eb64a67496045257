package params

import (
	"fmt"
	"maps"
	"slices"

	"github.com/goliatone/go-params/internal/hydrate"
	"github.com/goliatone/go-params/internal/layering"
)

// BindKeywords installs keyword arguments into s and marks each one passed.
// Layers are ordered from strongest to weakest, e.g. explicit arguments
// followed by values read from a file; nested maps are merged key by key.
// Keys may be names or aliases. Values must already hold the registered type.
// Every key is checked before anything is written, so a failed bind leaves s
// untouched.
func BindKeywords(s *Store, layers ...map[string]any) error {
	merged := layering.Merge(layers...)
	resolved := make(map[string]any, len(merged))
	for _, key := range slices.Sorted(maps.Keys(merged)) {
		name, ok := s.Resolve(key)
		if !ok {
			return UnknownParameterError{Name: key}
		}
		if _, dup := resolved[name]; dup {
			return fmt.Errorf("params: parameter %q bound by both name and alias", name)
		}
		e, err := s.lookup(name)
		if err != nil {
			return err
		}
		if err := e.accepts(merged[key]); err != nil {
			return err
		}
		resolved[name] = merged[key]
	}
	for _, name := range s.Names() {
		value, ok := resolved[name]
		if !ok {
			continue
		}
		if err := s.SetAny(name, value); err != nil {
			return err
		}
		if err := s.MarkPassed(name); err != nil {
			return err
		}
	}
	return nil
}

// Outputs decodes the output parameters held in s into T. Values are keyed by
// their StyleField label, so T's exported field names (or json tags) match
// the upper camel case form of the parameter names.
func Outputs[T any](p *Program, s *Store) (T, error) {
	var zero T
	if s == nil {
		return zero, fmt.Errorf("params: outputs: store is nil")
	}
	values := map[string]any{}
	for _, name := range s.Names() {
		info, _ := s.Lookup(name)
		if !info.Output {
			continue
		}
		value, err := s.Any(name)
		if err != nil {
			return zero, err
		}
		values[s.LabelFor(StyleField, name)] = value
	}

	ctx := hydrate.Context{Style: s.BindingStyle().String()}
	if p != nil {
		ctx.Program = p.ID
	}
	out, err := hydrate.NewDecoder[T]().Decode(ctx, values)
	if err != nil {
		return zero, fmt.Errorf("params: outputs: %w", err)
	}
	return out, nil
}
