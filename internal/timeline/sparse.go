// Package timeline reshapes Riot match timelines before they are sent to the
// LLM: sparse encoding (dropping zero/null/empty fields), delta encoding of
// per-frame participant stats, event enrichment, and game-phase splitting.
//
// All functions operate on the generic JSON tree (map[string]any / []any)
// produced by encoding/json, so the package stays agnostic of whichever
// fields Riot adds to the schema next.
package timeline

// structuralKeys are kept even when their value is zero. A participantId of
// 0 or a timestamp of 0 is meaningful; removing them would make events and
// frames unreadable.
var structuralKeys = map[string]bool{
	"participantId": true,
	"timestamp":     true,
	"type":          true,
	"level":         true,
	"itemId":        true,
	"creatorId":     true,
	"killerId":      true,
	"victimId":      true,
	"position":      true,
	"x":             true,
	"y":             true,
}

// IsEmptyValue reports whether a value carries no information and can be
// omitted from its parent object: nil, zero numbers, empty strings, and
// empty collections.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// Sparsify returns a copy of v with empty values removed from every object,
// recursively. List items are always kept, even when they sparsify down to
// an empty object, because list position is meaningful for frames and
// events. Structural keys survive regardless of value.
//
// The input is never modified.
func Sparsify(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, val := range t {
			if structuralKeys[key] {
				out[key] = Sparsify(val)
				continue
			}
			sv := Sparsify(val)
			if !IsEmptyValue(sv) {
				out[key] = sv
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, Sparsify(item))
		}
		return out
	default:
		return v
	}
}
