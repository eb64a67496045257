package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: EngineExpr,
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: EngineCEL,
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
	{
		name: EngineJS,
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []JSEvaluatorOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSEvaluator(opts...)
		},
	},
}

// newFactoryEvaluator builds the evaluator for factory, skipping the test when
// the engine is not compiled in.
func newFactoryEvaluator(t *testing.T, name string, cache ProgramCache, registry *FunctionRegistry) Evaluator {
	t.Helper()
	for _, factory := range evaluatorFactories {
		if factory.name != name {
			continue
		}
		evaluator := factory.new(cache, registry)
		if evaluator == nil {
			t.Skipf("%s evaluator not available in this build", name)
		}
		return evaluator
	}
	t.Fatalf("unknown evaluator factory %q", name)
	return nil
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("unable to resolve caller for fixture %q", name)
	}
	path := filepath.Join(filepath.Dir(file), "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", path, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", path, err)
	}
	return out
}

type fixtureParam struct {
	Name     string `json:"name"`
	Alias    string `json:"alias"`
	Type     string `json:"type"`
	Default  any    `json:"default"`
	Required bool   `json:"required"`
	Output   bool   `json:"output"`
}

func fixtureType(t *testing.T, name string) reflect.Type {
	t.Helper()
	switch name {
	case "string":
		return reflect.TypeFor[string]()
	case "int":
		return reflect.TypeFor[int]()
	case "float":
		return reflect.TypeFor[float64]()
	case "bool":
		return reflect.TypeFor[bool]()
	default:
		t.Fatalf("unsupported fixture type %q", name)
		return nil
	}
}

// convertFixtureValue converts a decoded JSON value into typ.
func convertFixtureValue(t *testing.T, raw any, typ reflect.Type) any {
	t.Helper()
	if raw == nil {
		return nil
	}
	rv := reflect.ValueOf(raw)
	if !rv.Type().ConvertibleTo(typ) {
		t.Fatalf("fixture value %v (%T) is not convertible to %s", raw, raw, typ)
	}
	return rv.Convert(typ).Interface()
}

// fixtureStore installs params and marks every entry of passed as supplied.
func fixtureStore(t *testing.T, defs []fixtureParam, style BindingStyle, passed map[string]any) *Store {
	t.Helper()
	store := NewStore(style)
	for _, def := range defs {
		typ := fixtureType(t, def.Type)
		param := Param{
			Name:     def.Name,
			Alias:    def.Alias,
			Required: def.Required,
			Output:   def.Output,
		}
		if err := store.AddType(param, typ, convertFixtureValue(t, def.Default, typ)); err != nil {
			t.Fatalf("register %s: %v", def.Name, err)
		}
	}
	for name, raw := range passed {
		info, ok := store.Lookup(name)
		if !ok {
			t.Fatalf("fixture passes unknown parameter %q", name)
		}
		if err := store.SetAny(name, convertFixtureValue(t, raw, info.Type)); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
		if err := store.MarkPassed(name); err != nil {
			t.Fatalf("mark %s: %v", name, err)
		}
	}
	return store
}

type fakeProgramCache struct {
	store  map[string]any
	hits   int
	misses int
}

func (c *fakeProgramCache) Get(key string) (any, bool) {
	if c.store == nil {
		c.store = make(map[string]any)
	}
	value, ok := c.store[key]
	if ok {
		c.hits++
		return value, true
	}
	c.misses++
	return nil, false
}

func (c *fakeProgramCache) Set(key string, value any) {
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = value
}

type capturingEvaluator struct {
	contexts []RuleContext
	result   any
}

func (c *capturingEvaluator) Evaluate(ctx RuleContext, _ string) (any, error) {
	c.contexts = append(c.contexts, ctx)
	if c.result != nil {
		return c.result, nil
	}
	return true, nil
}

func (c *capturingEvaluator) Compile(string, ...CompileOption) (CompiledRule, error) {
	return nil, fmt.Errorf("capturing evaluator does not support compile")
}

// newTestChecker returns a checker whose diagnostics land in the returned sink.
func newTestChecker(store *Store, opts ...Option) (*Checker, *CaptureSink) {
	sink := &CaptureSink{}
	opts = append([]Option{WithSink(sink)}, opts...)
	return NewChecker(store, opts...), sink
}

// must fails the test on a setup error.
func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func violationOf(t *testing.T, err error) *ViolationError {
	t.Helper()
	violation, ok := AsViolation(err)
	if !ok {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	return violation
}
