package manifest

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

var goTypes = map[string]reflect.Type{
	"string":      reflect.TypeFor[string](),
	"int":         reflect.TypeFor[int](),
	"float64":     reflect.TypeFor[float64](),
	"float":       reflect.TypeFor[float64](),
	"bool":        reflect.TypeFor[bool](),
	"[]string":    reflect.TypeFor[[]string](),
	"[]int":       reflect.TypeFor[[]int](),
	"[]float64":   reflect.TypeFor[[]float64](),
	"[][]float64": reflect.TypeFor[[][]float64](),
	"matrix":      reflect.TypeFor[[][]float64](),
}

func goType(name string) (reflect.Type, error) {
	typ, ok := goTypes[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
	}
	return typ, nil
}

// coerce converts a decoded YAML value into typ. YAML numbers arrive as int
// or float64 and sequences as []any.
func coerce(raw any, typ reflect.Type) (any, error) {
	if raw == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(typ) {
		return raw, nil
	}
	switch typ.Kind() {
	case reflect.Int:
		switch n := raw.(type) {
		case int64:
			return int(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("%v is not an integer", n)
			}
			return int(n), nil
		}
	case reflect.Float64:
		switch n := raw.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case reflect.Slice:
		items, ok := raw.([]any)
		if !ok {
			break
		}
		out := reflect.MakeSlice(typ, len(items), len(items))
		for i, item := range items {
			v, err := coerce(item, typ.Elem())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			if v != nil {
				out.Index(i).Set(reflect.ValueOf(v))
			}
		}
		return out.Interface(), nil
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", raw, raw, typ)
}
