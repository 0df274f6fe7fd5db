// Package task defines the per-request task model: the structured intent
// extracted from free-form text and the result a handler produces.
package task

import (
	"fmt"
	"strconv"
	"strings"
)

// Intent is the structured reading of a task description.
type Intent struct {
	Action     string         `json:"action"`
	InputPath  string         `json:"input_path"`
	OutputPath string         `json:"output_path"`
	Parameters map[string]any `json:"parameters"`
}

// NormalizedAction returns the lower-cased action used for routing.
func (i *Intent) NormalizedAction() string {
	return strings.ToLower(i.Action)
}

// Param returns the string form of a parameter, or def when it is absent or empty.
func (i *Intent) Param(key, def string) string {
	v, ok := i.Parameters[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	default:
		s = fmt.Sprint(val)
	}
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// IntParam returns an integer parameter, or def when absent or not numeric.
func (i *Intent) IntParam(key string, def int) int {
	switch v := i.Parameters[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// BoolParam reports whether a parameter is set to a truthy value.
func (i *Intent) BoolParam(key string) bool {
	switch v := i.Parameters[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

// StringsParam returns a list parameter. A single string is treated as a
// comma-separated list.
func (i *Intent) StringsParam(key string, def []string) []string {
	switch v := i.Parameters[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	case []string:
		if len(v) > 0 {
			return v
		}
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
