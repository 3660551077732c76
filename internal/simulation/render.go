package simulation

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// valueText is the text form of a setting value in patterns and partial tags.
// It follows Python's str() so folders shared with the Python tool render
// the same command lines: True/False, None, 2.0, [1, 'a'] and {'k': 1}.
// Mapping keys are sorted since Go maps keep no insertion order.
func valueText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return valueRepr(v)
}

func valueRepr(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return quoteRepr(t)
	case float64:
		return floatText(t)
	case float32:
		return floatText(float64(t))
	case []any:
		items := make([]string, len(t))
		for i, e := range t {
			items[i] = valueRepr(e)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = quoteRepr(k) + ": " + valueRepr(t[k])
		}
		return "{" + strings.Join(items, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// floatText keeps a fraction on integral values and switches to an exponent
// outside [1e-4, 1e16).
func floatText(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quoteRepr quotes a string nested in a list or mapping.
func quoteRepr(s string) string {
	quote := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = `"`
	}
	r := strings.NewReplacer(`\`, `\\`, quote, `\`+quote, "\n", `\n`, "\t", `\t`)
	return quote + r.Replace(s) + quote
}

// renderPattern formats a pattern such as "--{name}={value}".
// "{{" and "}}" produce literal braces. Unknown fields and fields carrying a
// format spec, such as "{value:.2f}", are kept as written.
func renderPattern(pattern, name string, value any) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '{' && i+1 < len(pattern) && pattern[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(pattern) && pattern[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				b.WriteString(pattern[i:])
				return b.String()
			}
			switch field := pattern[i+1 : i+end]; field {
			case "name":
				b.WriteString(name)
			case "value":
				b.WriteString(valueText(value))
			default:
				b.WriteString(pattern[i : i+end+1])
			}
			i += end
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
