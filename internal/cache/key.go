package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Key identifies a cached query. It is an ordered tuple; coarser keys are
// prefixes of finer ones.
type Key []any

// NewKey builds a key from parts, dropping nil parts (including typed nil
// pointers) and keeping the order of the rest.
func NewKey(parts ...any) Key {
	k := make(Key, 0, len(parts))
	for _, p := range parts {
		if isNil(p) {
			continue
		}
		k = append(k, p)
	}
	return k
}

// With returns a new key extended by parts.
func (k Key) With(parts ...any) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, NewKey(parts...)...)
}

// HasPrefix reports whether prefix matches the leading elements of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if encodePart(prefix[i]) != encodePart(k[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether both keys have the same elements.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = encodePart(p)
	}
	return strings.Join(parts, "/")
}

// hash is the map key used for storage.
func (k Key) hash() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = encodePart(p)
	}
	return strings.Join(parts, "\x00")
}

func encodePart(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	if b, err := json.Marshal(p); err == nil {
		return string(b)
	}
	return fmt.Sprint(p)
}

func isNil(p any) bool {
	if p == nil {
		return true
	}
	rv := reflect.ValueOf(p)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
