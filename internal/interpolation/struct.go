package interpolation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TagName marks struct fields for interpolation: `env_interpolation:"yes"`.
const TagName = "env_interpolation"

// InterpolateStruct expands ${NAME} and ${NAME:default} in the tagged fields
// of the struct v points to, resolving names from the process environment.
func InterpolateStruct(v any) error {
	return InterpolateStructWith(v, OSLookup)
}

// InterpolateStructWith is InterpolateStruct resolving names through lookup.
//
// Tagged fields may be strings (including named string types), pointers to
// strings, map[string]string values, string slices, or nested structs, struct
// pointers and struct slices, which are walked recursively. Every failure is
// reported, prefixed with its field path.
func InterpolateStructWith(v any, lookup Lookup) error {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct or pointer to struct, got %T", v)
	}
	if !val.CanAddr() {
		return fmt.Errorf("cannot interpolate %T in place, pass a pointer", v)
	}

	w := &structWalker{lookup: lookup}
	w.walkStruct(val, "")
	return errors.Join(w.errs...)
}

type structWalker struct {
	lookup Lookup
	errs   []error
}

func (w *structWalker) fail(path string, err error) {
	w.errs = append(w.errs, fmt.Errorf("field %s: %w", path, err))
}

func (w *structWalker) expand(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	return ExpandEnvVarsWith(s, w.lookup)
}

func (w *structWalker) walkStruct(val reflect.Value, prefix string) {
	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		sf := typ.Field(i)
		if !field.CanSet() || !strings.EqualFold(sf.Tag.Get(TagName), "yes") {
			continue
		}
		w.walkValue(field, joinPath(prefix, sf.Name))
	}
}

func (w *structWalker) walkValue(field reflect.Value, path string) {
	switch field.Kind() {
	case reflect.String:
		out, err := w.expand(field.String())
		if err != nil {
			w.fail(path, err)
			return
		}
		field.SetString(out)

	case reflect.Pointer:
		if field.IsNil() {
			return
		}
		switch field.Elem().Kind() {
		case reflect.String, reflect.Struct:
			w.walkElem(field.Elem(), path)
		}

	case reflect.Struct:
		w.walkStruct(field, path)

	case reflect.Map:
		if field.IsNil() || field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return
		}
		iter := field.MapRange()
		for iter.Next() {
			out, err := w.expand(iter.Value().String())
			if err != nil {
				w.fail(fmt.Sprintf("%s[%s]", path, iter.Key().String()), err)
				continue
			}
			field.SetMapIndex(iter.Key(), reflect.ValueOf(out).Convert(field.Type().Elem()))
		}

	case reflect.Slice:
		for i := range field.Len() {
			w.walkElem(field.Index(i), fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

// walkElem handles values reached through a pointer or slice, where the
// elements themselves carry no tag.
func (w *structWalker) walkElem(elem reflect.Value, path string) {
	switch elem.Kind() {
	case reflect.String:
		w.walkValue(elem, path)
	case reflect.Struct:
		w.walkStruct(elem, path)
	case reflect.Pointer:
		if !elem.IsNil() && elem.Elem().Kind() == reflect.Struct {
			w.walkStruct(elem.Elem(), path)
		}
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
