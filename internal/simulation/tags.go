package simulation

import (
	"regexp"
	"slices"
	"strings"
)

// Tag categories
const (
	TagSetting       = "setting"
	TagGlobalSetting = "globalsetting"
)

// Growing self-references, such as a = "x{setting:a}", never revisit a
// previous string. maxTagPasses bounds the linear ones and maxTagLength the
// ones that multiply their own tags, such as a = "{setting:a}{setting:a}".
const (
	maxTagPasses = 64
	maxTagLength = 1 << 20
)

// {setting:name} or {globalsetting:name}
var tagRegex = regexp.MustCompile(`\{((?:global)?setting):([^}]+)\}`)

// ParseString resolves the setting tags of a raw value.
//
// Non-string values are returned unchanged. A string made of exactly one tag
// resolves to a deep copy of the referenced value, keeping its type. Tags
// inside a longer string are replaced by the text form of their value, and
// tags naming unknown settings are kept verbatim. The result is parsed again
// until it reaches a string already produced along the way, which is then
// returned: self-referencing values terminate instead of looping. Growing
// self-references stop after maxTagPasses passes or once the string exceeds
// maxTagLength bytes.
func ParseString(value any, settings, globals map[string]any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	var seen []string
	for {
		if m := fullTag(s); m != nil {
			if v, found := lookupTag(m[1], m[2], settings, globals); found {
				return cloneValue(v)
			}
			return s
		}

		parsed := substituteTags(s, settings, globals)
		seen = append(seen, s)
		if slices.Contains(seen, parsed) || len(seen) >= maxTagPasses || len(parsed) > maxTagLength {
			return parsed
		}
		s = parsed
	}
}

// fullTag returns the submatches when s is exactly one tag.
func fullTag(s string) []string {
	loc := tagRegex.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 || loc[1] != len(s) {
		return nil
	}
	return []string{s, s[loc[2]:loc[3]], s[loc[4]:loc[5]]}
}

func substituteTags(s string, settings, globals map[string]any) string {
	var b strings.Builder
	last := 0
	for _, loc := range tagRegex.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(s[last:loc[0]])
		if v, found := lookupTag(s[loc[2]:loc[3]], s[loc[4]:loc[5]], settings, globals); found {
			b.WriteString(valueText(v))
		} else {
			b.WriteString(s[loc[0]:loc[1]])
		}
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func lookupTag(category, name string, settings, globals map[string]any) (any, bool) {
	var m map[string]any
	if category == TagGlobalSetting {
		m = globals
	} else {
		m = settings
	}
	v, ok := m[name]
	return v, ok
}

// cloneValue deep copies the containers YAML documents decode to.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
