package testutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// volatileFields are dropped before comparison.
var volatileFields = map[string]bool{
	"timestamp":   true,
	"requestId":   true,
	"duration":    true,
	"duration_ms": true,
	"createdAt":   true,
	"updatedAt":   true,
}

// Normalize prepares data for stable golden comparison: it round-trips
// through JSON, drops volatile fields and rewrites the fixture root as
// "<fixture>". Slice order is preserved because result order is part of
// what is being compared.
func Normalize(t *testing.T, fixture *FixtureContext, data any) any {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}
	return normalizeValue(generic, fixture.Root)
}

func normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if volatileFields[k] {
				continue
			}
			out[k] = normalizeValue(item, root)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item, root)
		}
		return out
	case string:
		return NormalizeFilePath(val, root)
	default:
		return v
	}
}

// NormalizeFilePath converts separators to forward slashes and replaces the
// fixture root prefix with "<fixture>".
func NormalizeFilePath(s, root string) string {
	s = strings.ReplaceAll(s, `\`, "/")
	root = strings.ReplaceAll(root, `\`, "/")
	if root != "" {
		s = strings.ReplaceAll(s, root, "<fixture>")
	}
	return s
}

// MarshalNormalized normalizes data and marshals it with sorted keys,
// 2-space indentation and a trailing newline.
func MarshalNormalized(t *testing.T, fixture *FixtureContext, data any) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Normalize(t, fixture, data)); err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return buf.Bytes()
}
