// ABOUTME: Optional accessors over raw JSON documents, built on gjson
// ABOUTME: A missing key or a non-object step yields the caller's default, never an error

package dialog

import (
	"strings"

	"github.com/tidwall/gjson"
)

// gjsonSpecial lists characters with meaning in gjson path syntax
const gjsonSpecial = `.*?|#@\!=<>%`

// escapeKey makes a literal object key safe to use as a gjson path component
func escapeKey(key string) string {
	if !strings.ContainsAny(key, gjsonSpecial) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(gjsonSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// walk follows keys through nested objects. Any step that is not an object,
// or any missing key, yields a non-existent result.
func walk(raw []byte, keys ...string) gjson.Result {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}
	}
	r := gjson.ParseBytes(raw)
	for _, key := range keys {
		if !r.IsObject() {
			return gjson.Result{}
		}
		r = r.Get(escapeKey(key))
		if !r.Exists() {
			return gjson.Result{}
		}
	}
	return r
}

// Path returns the string at the given key path, or def when any step is
// missing, is not an object, or the final value is not a string.
func Path(raw []byte, def string, keys ...string) string {
	r := walk(raw, keys...)
	if r.Type != gjson.String {
		return def
	}
	return r.Str
}

// PathMap returns the object at the given key path flattened to strings.
// String values are kept as-is, null values are dropped, and any other value
// keeps its JSON text. A missing or non-object value yields an empty map.
func PathMap(raw []byte, keys ...string) map[string]string {
	out := make(map[string]string)
	r := walk(raw, keys...)
	if !r.IsObject() {
		return out
	}
	r.ForEach(func(k, v gjson.Result) bool {
		switch v.Type {
		case gjson.String:
			out[k.String()] = v.Str
		case gjson.Null:
		default:
			out[k.String()] = v.Raw
		}
		return true
	})
	return out
}

// Lookup returns the value for key in attrs, or def when the key is absent
// or its value is empty.
func Lookup(attrs map[string]string, key, def string) string {
	if v, ok := attrs[key]; ok && v != "" {
		return v
	}
	return def
}
