// Package clone produces deep copies of parameter payloads so cached settings
// never share maps, slices or pointers with a live store.
package clone

import "reflect"

// Value returns a deep copy of v.
func Value[T any](v T) T {
	var zero T
	copied := Reflect(reflect.ValueOf(&v).Elem())
	if !copied.IsValid() {
		return zero
	}
	out, ok := copied.Interface().(T)
	if !ok {
		return zero
	}
	return out
}

// Reflect deep copies v. Unexported struct fields are carried over by value.
// Pointers, maps and slices reached more than once are copied once, so shared
// references stay shared in the copy and cyclic payloads terminate.
func Reflect(v reflect.Value) reflect.Value {
	c := copier{seen: map[visit]reflect.Value{}}
	return c.copy(v)
}

// visit identifies a reference already copied. Slices also key on length
// since sub-slices share a data pointer.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type copier struct {
	seen map[visit]reflect.Value
}

func (c copier) copy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if out, ok := c.seen[key]; ok {
			return out
		}
		out := reflect.New(v.Type().Elem())
		c.seen[key] = out
		out.Elem().Set(c.copy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(c.copy(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(c.copy(v.Field(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if out, ok := c.seen[key]; ok {
			return out
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.seen[key] = out
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), c.copy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if out, ok := c.seen[key]; ok && v.Len() > 0 {
			return out
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		if v.Len() > 0 {
			c.seen[key] = out
		}
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.copy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.copy(v.Index(i)))
		}
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}
