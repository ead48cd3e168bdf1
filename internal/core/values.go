package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Values holds the raw field values of one workflow form, keyed by field
// name. Values arrive from JSON so accessors are lenient about types.
type Values map[string]any

// Text returns the field as a string. Numbers and booleans are formatted;
// missing fields yield "".
func (v Values) Text(name string) string {
	switch x := v[name].(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Trimmed is Text with surrounding whitespace removed.
func (v Values) Trimmed(name string) string {
	return strings.TrimSpace(v.Text(name))
}

// Flag returns the field as a boolean. Strings such as "true", "on" and "1"
// count as set.
func (v Values) Flag(name string) bool {
	switch x := v[name].(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "on", "yes", "1":
			return true
		}
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return false
}

// List returns the field as a list of non-empty strings. A plain string is
// split on commas.
func (v Values) List(name string) []string {
	var raw []string
	switch x := v[name].(type) {
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			raw = append(raw, fmt.Sprint(item))
		}
	case string:
		raw = strings.Split(x, ",")
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Int returns the field as an integer and whether it parsed.
func (v Values) Int(name string) (int, bool) {
	switch x := v[name].(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

// Has reports whether the field was supplied with a non-empty value.
func (v Values) Has(name string) bool {
	switch x := v[name].(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case []any:
		return len(x) > 0
	case []string:
		return len(x) > 0
	}
	return true
}

func (v Values) clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
