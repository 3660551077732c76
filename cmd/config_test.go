package cmd

import (
	"sort"
	"testing"

	"github.com/Justype/simmaker/internal/config"
)

func TestConfigValueCompletion(t *testing.T) {
	opts := configValueCompletion("remote.type")
	for _, want := range []string{config.RemoteLocal, config.RemoteSSH} {
		found := false
		for _, o := range opts {
			if o == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected completion option %q not present", want)
		}
	}
	if opts := configValueCompletion("remote.host"); opts != nil {
		t.Errorf("free-form key completes to %v; want nothing", opts)
	}
}

func TestGetConfigEnvVars(t *testing.T) {
	vars := getConfigEnvVars()
	if len(vars) != len(config.Keys()) {
		t.Fatalf("got %d vars, expected %d", len(vars), len(config.Keys()))
	}
	if !sort.StringsAreSorted(vars) {
		t.Errorf("env vars are not sorted: %v", vars)
	}
	if got := envVarName("remote.known_hosts"); got != "SIMMAKER_REMOTE_KNOWN_HOSTS" {
		t.Errorf("envVarName = %q, want SIMMAKER_REMOTE_KNOWN_HOSTS", got)
	}
}

func TestValidateConfigValue(t *testing.T) {
	valid := map[string]string{
		"remote.type":   "ssh",
		"jobs.channel":  "mailbox",
		"poll_interval": "2s",
		"max_failures":  "-1",
		"remote.host":   "anything",
	}
	for key, value := range valid {
		if err := validateConfigValue(key, value); err != nil {
			t.Errorf("validateConfigValue(%q, %q) = %v, want nil", key, value, err)
		}
	}

	invalid := map[string]string{
		"remote.type":    "ftp",
		"jobs.channel":   "kafka",
		"poll_interval":  "soon",
		"remote.timeout": "0s",
		"max_corrupted":  "1.5",
		"remote.port":    "22abc",
	}
	for key, value := range invalid {
		if err := validateConfigValue(key, value); err == nil {
			t.Errorf("validateConfigValue(%q, %q) expected error", key, value)
		}
	}
}
