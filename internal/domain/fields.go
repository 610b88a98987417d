package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Field map accessors tolerant of JSON round-tripping: numbers decode as
// float64, string slices as []any, string maps as map[string]any.

func fieldString(fields map[string]any, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func fieldInt64(fields map[string]any, key string) int64 {
	switch typed := fields[key].(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case float64:
		return int64(typed)
	default:
		return 0
	}
}

func fieldFloat64(fields map[string]any, key string) float64 {
	switch typed := fields[key].(type) {
	case float64:
		return typed
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	default:
		return 0
	}
}

func fieldStringSlice(fields map[string]any, key string) []string {
	switch typed := fields[key].(type) {
	case []string:
		out := make([]string, len(typed))
		copy(out, typed)
		return out
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func fieldStringMap(fields map[string]any, key string) map[string]string {
	switch typed := fields[key].(type) {
	case map[string]string:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}

func fieldUUID(fields map[string]any, key string) (uuid.UUID, error) {
	raw := fieldString(fields, key)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid for %q: %w", key, err)
	}
	return id, nil
}

func fieldUUIDSlice(fields map[string]any, key string) ([]uuid.UUID, error) {
	raw := fieldStringSlice(fields, key)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, item := range raw {
		id, err := uuid.Parse(item)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid in %q: %w", key, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func fieldTime(fields map[string]any, key string) (time.Time, error) {
	return parseTime(fieldString(fields, key))
}

func uuidStrings(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
