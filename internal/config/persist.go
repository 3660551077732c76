package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Justype/simmaker/internal/utils"
	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (SIMMAKER_*, dots replaced by underscores)
// 3. User config file (~/.config/simmaker/config.yaml)
// 4. System config file (/etc/simmaker/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	for _, dir := range configDirs() {
		viper.AddConfigPath(dir.Path)
	}

	// SIMMAKER_REMOTE_HOST -> remote.host
	viper.SetEnvPrefix("SIMMAKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("logs_dir", filepath.Join(GetUserStateDir(), "logs"))
	viper.SetDefault("max_corrupted", -1)
	viper.SetDefault("max_failures", 0)
	viper.SetDefault("poll_interval", "500ms")
	viper.SetDefault("metrics_file", "")

	viper.SetDefault("remote.type", RemoteLocal)
	viper.SetDefault("remote.root", filepath.Join(GetUserStateDir(), "remote"))
	viper.SetDefault("remote.host", "")
	viper.SetDefault("remote.port", 22)
	viper.SetDefault("remote.user", "")
	viper.SetDefault("remote.key_file", "")
	viper.SetDefault("remote.known_hosts", "")
	viper.SetDefault("remote.timeout", "30s")

	viper.SetDefault("jobs.channel", ChannelFile)
	viper.SetDefault("jobs.redis_addr", "localhost:6379")
	viper.SetDefault("jobs.redis_db", 0)
	viper.SetDefault("jobs.redis_key", "simmaker:jobs")
}

// Keys lists every config key known to simmaker, in display order.
func Keys() []string {
	return []string{
		"logs_dir",
		"max_corrupted",
		"max_failures",
		"poll_interval",
		"metrics_file",
		"remote.type",
		"remote.root",
		"remote.host",
		"remote.port",
		"remote.user",
		"remote.key_file",
		"remote.known_hosts",
		"remote.timeout",
		"jobs.channel",
		"jobs.redis_addr",
		"jobs.redis_db",
		"jobs.redis_key",
	}
}

// IsKnownKey reports whether key is a simmaker config key.
func IsKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".simmaker", ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, "simmaker", ConfigFilename+"."+ConfigType), nil
}

// SaveConfig saves current Viper config to user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), utils.PermDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadFromViper loads config from Viper into Global struct.
// Invalid values are reported and the defaults kept.
func LoadFromViper() error {
	if dir := viper.GetString("logs_dir"); dir != "" {
		Global.LogsDir = dir
	}

	Global.MaxCorrupted = viper.GetInt("max_corrupted")
	Global.MaxFailures = viper.GetInt("max_failures")

	if interval := viper.GetString("poll_interval"); interval != "" {
		dur, err := utils.ParseDuration(interval)
		if err != nil || dur <= 0 {
			return fmt.Errorf("invalid poll_interval %q", interval)
		}
		Global.PollInterval = dur
	}

	Global.MetricsFile = viper.GetString("metrics_file")

	remoteType := viper.GetString("remote.type")
	switch remoteType {
	case RemoteLocal, RemoteSSH:
		Global.Remote.Type = remoteType
	default:
		return fmt.Errorf("invalid remote.type %q (expected %s or %s)", remoteType, RemoteLocal, RemoteSSH)
	}
	if root := viper.GetString("remote.root"); root != "" {
		Global.Remote.Root = root
	}
	Global.Remote.Host = viper.GetString("remote.host")
	if port := viper.GetInt("remote.port"); port > 0 {
		Global.Remote.Port = port
	}
	Global.Remote.User = viper.GetString("remote.user")
	Global.Remote.KeyFile = viper.GetString("remote.key_file")
	Global.Remote.KnownHosts = viper.GetString("remote.known_hosts")
	if timeout := viper.GetString("remote.timeout"); timeout != "" {
		if dur, err := utils.ParseDuration(timeout); err == nil {
			Global.Remote.Timeout = dur
		}
	}
	if Global.Remote.Type == RemoteSSH && Global.Remote.Host == "" {
		return fmt.Errorf("remote.host is required when remote.type is %s", RemoteSSH)
	}

	channel := viper.GetString("jobs.channel")
	switch channel {
	case ChannelFile, ChannelMailbox:
		Global.Jobs.Channel = channel
	default:
		return fmt.Errorf("invalid jobs.channel %q (expected %s or %s)", channel, ChannelFile, ChannelMailbox)
	}
	if addr := viper.GetString("jobs.redis_addr"); addr != "" {
		Global.Jobs.RedisAddr = addr
	}
	Global.Jobs.RedisDB = viper.GetInt("jobs.redis_db")
	if key := viper.GetString("jobs.redis_key"); key != "" {
		Global.Jobs.RedisKey = key
	}

	return nil
}
