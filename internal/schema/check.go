package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// Violation describes the first place a value departs from its schema
type Violation struct {
	Path    string
	Message string
}

func (v *Violation) Error() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Check walks v, a value produced by a json.Decoder with UseNumber enabled,
// and reports the first violation of s. Unknown object keys are ignored,
// except keys that differ from a declared property only by case.
// Numbers must be JSON numbers; numeric strings are not accepted.
func Check(s *genai.Schema, v any) error {
	return check(s, v, "")
}

func check(s *genai.Schema, v any, path string) error {
	if s == nil {
		return nil
	}
	if v == nil {
		if s.Nullable != nil && *s.Nullable {
			return nil
		}
		return violation(path, "must not be null, expected %s", typeName(s.Type))
	}

	switch s.Type {
	case genai.TypeObject:
		return checkObject(s, v, path)
	case genai.TypeArray:
		return checkArray(s, v, path)
	case genai.TypeString:
		str, ok := v.(string)
		if !ok {
			return violation(path, "expected string, got %s", describe(v))
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return violation(path, "%q is not one of %v", str, s.Enum)
		}
	case genai.TypeNumber, genai.TypeInteger:
		f, err := number(v)
		if err != nil {
			return violation(path, "%v", err)
		}
		if s.Type == genai.TypeInteger && f != math.Trunc(f) {
			return violation(path, "expected integer, got %v", f)
		}
		if s.Minimum != nil && f < *s.Minimum {
			return violation(path, "%v is below minimum %v", f, *s.Minimum)
		}
		if s.Maximum != nil && f > *s.Maximum {
			return violation(path, "%v is above maximum %v", f, *s.Maximum)
		}
	case genai.TypeBoolean:
		if _, ok := v.(bool); !ok {
			return violation(path, "expected boolean, got %s", describe(v))
		}
	}
	return nil
}

func checkObject(s *genai.Schema, v any, path string) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return violation(path, "expected object, got %s", describe(v))
	}
	for _, key := range s.Required {
		if _, present := obj[key]; !present {
			return violation(join(path, key), "required property is missing")
		}
	}

	// Deterministic order so the reported violation is stable
	keys := make([]string, 0, len(s.Properties))
	for key := range s.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	present := make([]string, 0, len(obj))
	for key := range obj {
		present = append(present, key)
	}
	sort.Strings(present)
	for _, key := range present {
		if _, declared := s.Properties[key]; declared {
			continue
		}
		for _, name := range keys {
			if strings.EqualFold(key, name) {
				return violation(join(path, key), "key differs from property %q only by case", name)
			}
		}
	}

	for _, key := range keys {
		child, present := obj[key]
		if !present {
			continue
		}
		if err := check(s.Properties[key], child, join(path, key)); err != nil {
			return err
		}
	}
	return nil
}

func checkArray(s *genai.Schema, v any, path string) error {
	arr, ok := v.([]any)
	if !ok {
		return violation(path, "expected array, got %s", describe(v))
	}
	if s.MinItems != nil && int64(len(arr)) < *s.MinItems {
		return violation(path, "expected at least %d items, got %d", *s.MinItems, len(arr))
	}
	if s.MaxItems != nil && int64(len(arr)) > *s.MaxItems {
		return violation(path, "expected at most %d items, got %d", *s.MaxItems, len(arr))
	}
	for i, item := range arr {
		if err := check(s.Items, item, path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	return nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n.String())
		}
		return f, nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected number, got %s", describe(v))
	}
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", truncate(x, 32))
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func typeName(t genai.Type) string {
	if t == "" {
		return "value"
	}
	return string(t)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func violation(path, format string, args ...any) *Violation {
	return &Violation{Path: path, Message: fmt.Sprintf(format, args...)}
}
