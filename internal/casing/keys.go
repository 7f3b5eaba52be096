// Package casing converts object keys between the backend's snake_case wire
// names and the client's camelCase names.
package casing

import (
	"strings"
	"unicode"

	"github.com/ettle/strcase"
)

// ToCamel returns a copy of v with every map key converted to camelCase,
// recursing through nested maps and slices. Non-container values are returned as is.
func ToCamel(v any) any { return convert(v, camelKey) }

// ToSnake is the inverse of ToCamel.
func ToSnake(v any) any { return convert(v, snakeKey) }

func convert(v any, key func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[key(k)] = convert(x, key)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = convert(x, key)
		}
		return out
	default:
		return v
	}
}

// Only identifier-shaped keys are field names. Map indexes ("0", "12") and
// data keys such as file paths ("uploads/a_b.md") are left alone.
func identifier(k string) bool {
	if k == "" || !unicode.IsLetter(rune(k[0])) {
		return false
	}
	for _, r := range k {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func camelKey(k string) string {
	if !identifier(k) || !strings.Contains(k, "_") {
		return k
	}
	return strcase.ToCamel(k)
}

func snakeKey(k string) string {
	if !identifier(k) || !hasUpper(k) {
		return k
	}
	return strcase.ToSnake(k)
}

func hasUpper(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0
}
