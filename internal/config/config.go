package config

import (
	"path/filepath"
	"time"
)

const VERSION = "0.4.2"

// Remote types
const (
	RemoteLocal = "local"
	RemoteSSH   = "ssh"
)

// Job-state channels
const (
	ChannelFile    = "file"
	ChannelMailbox = "mailbox"
)

// Config holds global application settings
type Config struct {
	Debug   bool
	Quiet   bool
	Version string
	LogsDir string

	MaxCorrupted int           // Corrupted rounds tolerated (<0 = unlimited)
	MaxFailures  int           // Failed rounds tolerated (<0 = unlimited)
	PollInterval time.Duration // Delay between two job-state polls
	MetricsFile  string        // Prometheus textfile written after each run (empty = disabled)

	Remote RemoteConfig
	Jobs   JobsConfig
}

// RemoteConfig describes where scripts are sent and executed
type RemoteConfig struct {
	Type       string // "local" or "ssh"
	Root       string // Remote working root (scripts and outputs live below it)
	Host       string
	Port       int
	User       string
	KeyFile    string
	KnownHosts string // Empty = host key not verified
	Timeout    time.Duration
}

// JobsConfig describes how job states are reported back
type JobsConfig struct {
	Channel   string // "file" or "mailbox"
	RedisAddr string
	RedisDB   int
	RedisKey  string
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to built-in defaults.
func LoadDefaults() {
	logsDir := filepath.Join(GetUserStateDir(), "logs")

	Global = Config{
		Debug:   false,
		Quiet:   false,
		Version: VERSION,
		LogsDir: logsDir,

		MaxCorrupted: -1,
		MaxFailures:  0,
		PollInterval: 500 * time.Millisecond,

		Remote: RemoteConfig{
			Type:    RemoteLocal,
			Root:    filepath.Join(GetUserStateDir(), "remote"),
			Port:    22,
			Timeout: 30 * time.Second,
		},
		Jobs: JobsConfig{
			Channel:   ChannelFile,
			RedisAddr: "localhost:6379",
			RedisKey:  "simmaker:jobs",
		},
	}
}
