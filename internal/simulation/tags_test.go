package simulation

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseStringFullTagKeepsType(t *testing.T) {
	settings := map[string]any{"value": 3.14}

	got := ParseString("{setting:value}", settings, nil)
	f, ok := got.(float64)
	if !ok || f != 3.14 {
		t.Errorf("ParseString full tag = %#v; want float64 3.14", got)
	}
}

func TestParseStringPartialTag(t *testing.T) {
	settings := map[string]any{"x": 2}
	globals := map[string]any{"unit": "cm"}

	if got := ParseString("n={setting:x}cm", settings, globals); got != "n=2cm" {
		t.Errorf("ParseString = %#v; want %q", got, "n=2cm")
	}
	if got := ParseString("{setting:x}{globalsetting:unit}", settings, globals); got != "2cm" {
		t.Errorf("ParseString = %#v; want %q", got, "2cm")
	}
}

func TestParseStringUnresolvedTags(t *testing.T) {
	settings := map[string]any{"x": 1}

	if got := ParseString("{setting:missing}", settings, nil); got != "{setting:missing}" {
		t.Errorf("full unknown tag = %#v; want it unchanged", got)
	}
	if got := ParseString("a {setting:missing} {setting:x}", settings, nil); got != "a {setting:missing} 1" {
		t.Errorf("partial unknown tag = %#v", got)
	}
	// setting and globalsetting live in separate namespaces
	if got := ParseString("{globalsetting:x}", settings, nil); got != "{globalsetting:x}" {
		t.Errorf("global lookup of a setting name = %#v", got)
	}
}

func TestParseStringRecursive(t *testing.T) {
	settings := map[string]any{
		"a": "{setting:b}-a",
		"b": "b{globalsetting:g}",
	}
	globals := map[string]any{"g": "G"}

	if got := ParseString("<{setting:a}>", settings, globals); got != "<bG-a>" {
		t.Errorf("ParseString = %#v; want %q", got, "<bG-a>")
	}
}

func TestParseStringIdempotent(t *testing.T) {
	settings := map[string]any{"a": "{setting:b}", "b": 7}
	globals := map[string]any{"g": "x{setting:a}"}

	first := ParseString("v={globalsetting:g}/{setting:b}", settings, globals)
	second := ParseString(first, settings, globals)
	if first != second {
		t.Errorf("ParseString not idempotent: %#v then %#v", first, second)
	}
}

func TestParseStringCycleTerminates(t *testing.T) {
	settings := map[string]any{
		"a": "{setting:b}",
		"b": "{setting:a}",
	}

	if got := ParseString("{setting:a}", settings, nil); got != "{setting:b}" {
		t.Errorf("full tag cycle = %#v; want %q", got, "{setting:b}")
	}
	if got := ParseString("x{setting:a}", settings, nil); got != "x{setting:a}" {
		t.Errorf("partial tag cycle = %#v; want %q", got, "x{setting:a}")
	}
}

func TestParseStringGrowingSelfReference(t *testing.T) {
	settings := map[string]any{"a": "x{setting:a}"}

	got, ok := ParseString("{setting:a}!", settings, nil).(string)
	if !ok {
		t.Fatalf("expected a string result")
	}
	if len(got) == 0 {
		t.Errorf("expected a non-empty string")
	}
}

func TestParseStringDoublingSelfReference(t *testing.T) {
	settings := map[string]any{"a": "{setting:a}{setting:a}"}

	done := make(chan any, 1)
	go func() {
		done <- ParseString("<{setting:a}>", settings, nil)
	}()

	select {
	case v := <-done:
		got, ok := v.(string)
		if !ok {
			t.Fatalf("expected a string result, got %T", v)
		}
		// the last pass at most doubles a string under the limit
		if len(got) <= maxTagLength || len(got) > 2*maxTagLength+2 {
			t.Errorf("result length = %d; want just above %d", len(got), maxTagLength)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("ParseString did not return for a doubling self-reference")
	}
}

func TestParseStringNonString(t *testing.T) {
	for _, v := range []any{42, 1.5, true, nil, []any{"{setting:a}"}} {
		got := ParseString(v, map[string]any{"a": 1}, nil)
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("ParseString(%#v) changed the value (-want +got):\n%s", v, diff)
		}
	}
}

func TestParseStringFullTagDeepCopies(t *testing.T) {
	original := map[string]any{"k": []any{1, 2}}
	settings := map[string]any{"m": original}

	got := ParseString("{setting:m}", settings, nil).(map[string]any)
	got["k"].([]any)[0] = 99
	got["new"] = true

	if original["k"].([]any)[0] != 1 {
		t.Errorf("mutating the resolved value changed the source slice")
	}
	if _, ok := original["new"]; ok {
		t.Errorf("mutating the resolved value changed the source map")
	}
}

func TestRenderPattern(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		value   any
		want    string
	}{
		{"--{name}={value}", "n", 3, "--n=3"},
		{"-{name} {value}", "flag", true, "-flag True"},
		{"{{{name}}}", "x", 1, "{x}"},
		{"{value}", "x", nil, "None"},
		{"--{name}={value}", "xs", []any{1, 2}, "--xs=[1, 2]"},
		{"{other}:{value}", "x", "v", "{other}:v"},
		{"{value:.2f}", "x", 1.5, "{value:.2f}"},
		{"{name", "x", 1, "{name"},
	}
	for _, tc := range cases {
		if got := renderPattern(tc.pattern, tc.name, tc.value); got != tc.want {
			t.Errorf("renderPattern(%q) = %q; want %q", tc.pattern, got, tc.want)
		}
	}
}

func TestValueText(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{"plain", "plain"},
		{nil, "None"},
		{false, "False"},
		{42, "42"},
		{2.0, "2.0"},
		{0.25, "0.25"},
		{1e16, "1e+16"},
		{1.5e-5, "1.5e-05"},
		{[]any{1, "a", true, nil}, "[1, 'a', True, None]"},
		{[]any{"it's"}, `["it's"]`},
		{map[string]any{"b": 2.5, "a": []any{}}, "{'a': [], 'b': 2.5}"},
	}
	for _, tc := range cases {
		if got := valueText(tc.value); got != tc.want {
			t.Errorf("valueText(%#v) = %q; want %q", tc.value, got, tc.want)
		}
	}
}
