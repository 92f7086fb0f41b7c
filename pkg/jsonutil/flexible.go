package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// IsBlank reports whether a raw value carries nothing usable: nil, an empty or
// whitespace-only string, a zero number, false, or an empty list.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []byte:
		return strings.TrimSpace(string(val)) == ""
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	if f, ok := numberOf(v); ok {
		return f == 0 || math.IsNaN(f)
	}
	return false
}

// FlexibleString converts a raw row value to a string. Numbers are rendered
// without a trailing ".0" when integral. Returns empty string for nil.
func FlexibleString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	}
	if f, ok := numberOf(v); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	// Maps and lists: keep their JSON form rather than Go's %v rendering
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

// FlexibleNumber converts a raw row value to a float64.
// Strings are parsed after stripping currency symbols, thousands separators and
// spaces. Anything unparseable, NaN or infinite yields 0.
func FlexibleNumber(v any) float64 {
	if s, ok := v.(string); ok {
		return parseNumberString(s)
	}
	if b, ok := v.([]byte); ok {
		return parseNumberString(string(b))
	}
	if n, ok := v.(json.Number); ok {
		return parseNumberString(n.String())
	}
	f, ok := numberOf(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var numberNoise = strings.NewReplacer("€", "", "$", "", "£", "", ",", "", " ", "", " ", "")

func parseNumberString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f, err = strconv.ParseFloat(numberNoise.Replace(s), 64)
		if err != nil {
			return 0
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// StringList normalizes the three shapes a URL list column takes in the wild:
// a native list, a JSON-encoded list in a string, or a single bare URL string.
// A non-empty string that is not a JSON list (including "null") is treated
// as one URL. Blank entries and non-string list items are not URLs and are
// dropped, so a list's length counts usable URLs only. Never returns nil.
func StringList(v any) []string {
	out := make([]string, 0)
	switch val := v.(type) {
	case nil:
		return out
	case []string:
		for _, s := range val {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case []byte:
		return StringList(string(val))
	case string:
		if strings.TrimSpace(val) == "" {
			return out
		}
		var decoded []any
		if err := json.Unmarshal([]byte(val), &decoded); err != nil || decoded == nil {
			return append(out, val)
		}
		return StringList(decoded)
	}
	return out
}

// ObjectList decodes a list of JSON objects from a native list or a JSON string.
// The second result is false when the value could not be decoded.
func ObjectList(v any) ([]map[string]any, bool) {
	switch val := v.(type) {
	case nil:
		return []map[string]any{}, true
	case []map[string]any:
		return val, true
	case []any:
		out := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, true
	case []byte:
		return ObjectList(string(val))
	case string:
		if strings.TrimSpace(val) == "" {
			return []map[string]any{}, true
		}
		var decoded []map[string]any
		if err := json.Unmarshal([]byte(val), &decoded); err != nil {
			return []map[string]any{}, false
		}
		return decoded, true
	}
	return []map[string]any{}, false
}

// Object decodes a single JSON object from a native map or a JSON string.
func Object(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case []byte:
		return Object(string(val))
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(val), &decoded); err != nil || decoded == nil {
			return nil, false
		}
		return decoded, true
	}
	return nil, false
}
