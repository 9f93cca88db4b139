package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// parseKeyValues turns key=value arguments into a mapping. Values that
// parse as JSON (numbers, booleans, quoted strings, arrays, objects) keep
// their type; anything else is stored as the raw string.
func parseKeyValues(flag string, pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewWithDetails(errors.EUsage,
				fmt.Sprintf("--%s expects key=value", flag), map[string]string{"input": p})
		}
		out[key] = parseValue(raw)
	}
	return out, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil && v != nil {
		return v
	}
	return raw
}

// parseStatuses validates a status list; empty input yields nil.
func parseStatuses(in []string) ([]store.Status, error) {
	var out []store.Status
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := store.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}
	}
	return out, nil
}

// parseSince accepts a duration ("48h"), a date ("2025-11-25"), or an
// RFC3339 timestamp. Durations count back from now.
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.NewWithDetails(errors.EUsage,
		"expected a duration such as 48h, a date, or an RFC3339 timestamp", map[string]string{"input": s})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
