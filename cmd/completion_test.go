package cmd

import "testing"

func TestDetectShell(t *testing.T) {
	cases := map[string]string{
		"/usr/bin/zsh":        "zsh",
		"/usr/local/bin/fish": "fish",
		"/opt/pwsh":           "powershell",
		"/bin/bash":           "bash",
		"":                    "bash",
	}
	for shell, want := range cases {
		t.Setenv("SHELL", shell)
		if got := detectShell(); got != want {
			t.Errorf("detectShell() with SHELL=%q = %q, want %q", shell, got, want)
		}
	}
}
