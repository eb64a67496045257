package params

import (
	"fmt"
	"reflect"
)

// Store maps parameter names to type-erased values for one program
// invocation. A Store is not safe for concurrent mutation; parallel
// invocations must use independent stores.
type Store struct {
	style   BindingStyle
	order   []string
	entries map[string]*entry
	aliases map[string]string
}

// NewStore returns an empty store rendering labels in style.
func NewStore(style BindingStyle) *Store {
	return &Store{
		style:   style,
		entries: map[string]*entry{},
		aliases: map[string]string{},
	}
}

// BindingStyle returns the style used by Label.
func (s *Store) BindingStyle() BindingStyle {
	if s == nil {
		return StyleFlag
	}
	return s.style
}

// SetBindingStyle switches the active binding style.
func (s *Store) SetBindingStyle(style BindingStyle) {
	s.style = style
}

// Add registers a parameter of type T holding def.
func Add[T any](s *Store, p Param, def T) error {
	return s.AddType(p, reflect.TypeFor[T](), def)
}

// AddType registers a parameter whose type is only known at runtime. def may
// be nil to install the zero value.
func (s *Store) AddType(p Param, typ reflect.Type, def any) error {
	if p.Name == "" {
		return ErrParameterNameRequired
	}
	if _, exists := s.entries[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateParameter, p.Name)
	}
	if p.Alias != "" {
		if owner, exists := s.aliases[p.Alias]; exists {
			return fmt.Errorf("%w: alias %q already used by %s", ErrDuplicateParameter, p.Alias, owner)
		}
	}
	e, err := newEntry(p, typ, def)
	if err != nil {
		return err
	}
	if s.entries == nil {
		s.entries = map[string]*entry{}
	}
	if s.aliases == nil {
		s.aliases = map[string]string{}
	}
	s.entries[p.Name] = e
	if p.Alias != "" {
		s.aliases[p.Alias] = p.Name
	}
	s.order = append(s.order, p.Name)
	return nil
}

// Install registers every definition in order.
func (s *Store) Install(defs ...Definition) error {
	for _, def := range defs {
		if err := s.AddType(def.Param, def.Type, def.Default); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a pointer to the value stored under name. Writes through the
// pointer change the stored value but do not mark it passed.
func Get[T any](s *Store, name string) (*T, error) {
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	want := reflect.TypeFor[T]()
	if e.typ != want {
		return nil, TypeMismatchError{Name: name, Want: want.String(), Got: e.typ.String()}
	}
	return e.ptr.Interface().(*T), nil
}

// MustGet is Get for call sites where a failure is a programming error.
func MustGet[T any](s *Store, name string) *T {
	v, err := Get[T](s, name)
	if err != nil {
		panic(err)
	}
	return v
}

// Value returns a copy of the value stored under name.
func Value[T any](s *Store, name string) (T, error) {
	v, err := Get[T](s, name)
	if err != nil {
		var zero T
		return zero, err
	}
	return *v, nil
}

// Set installs value without marking the parameter as passed.
func Set[T any](s *Store, name string, value T) error {
	v, err := Get[T](s, name)
	if err != nil {
		return err
	}
	*v = value
	return nil
}

// SetInput installs value and marks the parameter as passed, the way a
// binding does when the caller supplies an argument.
func SetInput[T any](s *Store, name string, value T) error {
	if err := Set(s, name, value); err != nil {
		return err
	}
	return s.MarkPassed(name)
}

// SetAny installs an untyped value. The value must be assignable to the
// registered type.
func (s *Store) SetAny(name string, value any) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	return e.assign(value)
}

// Any returns the stored value as an interface.
func (s *Store) Any(name string) (any, error) {
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.value(), nil
}

// MarkPassed records that the caller explicitly supplied name.
func (s *Store) MarkPassed(name string) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	e.passed = true
	return nil
}

// ClearPassed forgets that name was supplied; the value is kept.
func (s *Store) ClearPassed(name string) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	e.passed = false
	return nil
}

// ResetPassed clears the passed flag of every parameter.
func (s *Store) ResetPassed() {
	if s == nil {
		return
	}
	for _, e := range s.entries {
		e.passed = false
	}
}

// IsPassed reports whether name was explicitly supplied. Unknown names are
// never passed.
func (s *Store) IsPassed(name string) bool {
	e, err := s.lookup(name)
	return err == nil && e.passed
}

// Required reports whether name was registered as required.
func (s *Store) Required(name string) bool {
	e, err := s.lookup(name)
	return err == nil && e.Required
}

// Has reports whether name is registered.
func (s *Store) Has(name string) bool {
	_, err := s.lookup(name)
	return err == nil
}

// Resolve maps a short alias to its long name. Long names resolve to
// themselves.
func (s *Store) Resolve(nameOrAlias string) (string, bool) {
	if s.Has(nameOrAlias) {
		return nameOrAlias, true
	}
	if s == nil {
		return "", false
	}
	name, ok := s.aliases[nameOrAlias]
	return name, ok
}

// Lookup returns a read-only view of the parameter registered under name.
func (s *Store) Lookup(name string) (Info, bool) {
	e, err := s.lookup(name)
	if err != nil {
		return Info{}, false
	}
	return e.info(), true
}

// Names returns parameter names in registration order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Len returns the number of registered parameters.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Missing returns required parameters that were not passed, in registration
// order. Output parameters are never reported.
func (s *Store) Missing() []string {
	if s == nil {
		return nil
	}
	var missing []string
	for _, name := range s.order {
		e := s.entries[name]
		if e.Required && !e.Output && !e.passed {
			missing = append(missing, name)
		}
	}
	return missing
}

// Values returns every stored value keyed by name. Values are not copied.
func (s *Store) Values() map[string]any {
	if s == nil {
		return nil
	}
	out := make(map[string]any, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.value()
	}
	return out
}

// PassedSet returns the passed flag of every parameter keyed by name.
func (s *Store) PassedSet() map[string]bool {
	if s == nil {
		return nil
	}
	out := make(map[string]bool, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.passed
	}
	return out
}

// Clone returns a deep copy of the store including passed flags.
func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	out := &Store{
		style:   s.style,
		order:   append([]string(nil), s.order...),
		entries: make(map[string]*entry, len(s.entries)),
		aliases: make(map[string]string, len(s.aliases)),
	}
	for name, e := range s.entries {
		out.entries[name] = e.clone()
	}
	for alias, name := range s.aliases {
		out.aliases[alias] = name
	}
	return out
}

// replaceWith swaps the contents of s for those of other, keeping s's style.
func (s *Store) replaceWith(other *Store) {
	s.order = other.order
	s.entries = other.entries
	s.aliases = other.aliases
}

func (s *Store) lookup(name string) (*entry, error) {
	if s == nil || s.entries == nil {
		return nil, UnknownParameterError{Name: name}
	}
	e, ok := s.entries[name]
	if !ok {
		return nil, UnknownParameterError{Name: name}
	}
	return e, nil
}
