// Package format renders loosely-structured reporting payloads into
// deterministic operator-facing text. Values are rendered as they appear in the
// payload; nothing is interpolated or invented.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Decode parses a reporting response keeping numbers as json.Number so they
// can be printed verbatim.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

var listKeys = []string{"data", "items", "records", "results", "values"}

// records returns the record list of payload, unwrapping common wrapper keys.
func records(payload any) ([]map[string]any, bool) {
	var list []any
	switch v := payload.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, k := range listKeys {
			if l, ok := v[k].([]any); ok {
				list = l
				break
			}
		}
		if list == nil {
			return nil, false
		}
	default:
		return nil, false
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, true
}

// firstString returns the first non-empty string-ish value under keys.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// number reads a numeric field that may arrive as a JSON number or a numeric string.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// verbatim prints a scalar the way the payload carried it.
func verbatim(v any) string {
	switch n := v.(type) {
	case nil:
		return "N/A"
	case json.Number:
		return n.String()
	case string:
		return n
	case bool:
		return strconv.FormatBool(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func rawJSON(payload any) string {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprint(payload)
	}
	return string(b)
}

// day returns the date part of an ISO timestamp.
func day(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 {
		return ts[:i]
	}
	return ts
}
