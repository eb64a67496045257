package params

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-params/internal/clone"
)

// Param carries the registration metadata of a parameter.
type Param struct {
	Name        string
	Alias       string
	Description string
	Required    bool
	// Output marks values the program produces rather than consumes.
	Output bool
	// Labels overrides the rendered label for individual binding styles.
	Labels map[BindingStyle]string
}

func (p Param) clone() Param {
	out := p
	if len(p.Labels) > 0 {
		out.Labels = make(map[BindingStyle]string, len(p.Labels))
		for style, label := range p.Labels {
			out.Labels[style] = label
		}
	} else {
		out.Labels = nil
	}
	return out
}

// Info is a read-only view of a registered parameter.
type Info struct {
	Param
	Type   reflect.Type
	Passed bool
}

// Definition describes a parameter together with its type and default, ready
// to be installed into a fresh Store.
type Definition struct {
	Param
	Type    reflect.Type
	Default any
}

// Define builds a Definition whose type is T.
func Define[T any](p Param, def T) Definition {
	return Definition{
		Param:   p,
		Type:    reflect.TypeFor[T](),
		Default: def,
	}
}

// entry is the type-erased holder. ptr always points at a value of typ, so a
// typed accessor can hand out a *T once the tag matches.
type entry struct {
	Param
	typ    reflect.Type
	ptr    reflect.Value
	passed bool
}

func newEntry(p Param, typ reflect.Type, def any) (*entry, error) {
	if typ == nil {
		return nil, fmt.Errorf("params: parameter %q registered without a type", p.Name)
	}
	e := &entry{
		Param: p.clone(),
		typ:   typ,
		ptr:   reflect.New(typ),
	}
	if def != nil {
		if err := e.assign(clone.Reflect(reflect.ValueOf(def)).Interface()); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// accepts reports whether value can be stored in e. A nil value always can.
func (e *entry) accepts(value any) error {
	if value == nil {
		return nil
	}
	if vt := reflect.TypeOf(value); !vt.AssignableTo(e.typ) {
		return TypeMismatchError{Name: e.Name, Want: vt.String(), Got: e.typ.String()}
	}
	return nil
}

func (e *entry) assign(value any) error {
	if err := e.accepts(value); err != nil {
		return err
	}
	if value == nil {
		e.ptr.Elem().Set(reflect.Zero(e.typ))
		return nil
	}
	e.ptr.Elem().Set(reflect.ValueOf(value))
	return nil
}

func (e *entry) value() any {
	return e.ptr.Elem().Interface()
}

func (e *entry) clone() *entry {
	ptr := reflect.New(e.typ)
	ptr.Elem().Set(clone.Reflect(e.ptr.Elem()))
	return &entry{
		Param:  e.Param.clone(),
		typ:    e.typ,
		ptr:    ptr,
		passed: e.passed,
	}
}

func (e *entry) info() Info {
	return Info{
		Param:  e.Param.clone(),
		Type:   e.typ,
		Passed: e.passed,
	}
}
