package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/devsync/internal/matcher"
)

// DefaultConfigPath is the path to the canonical sync defaults file.
const DefaultConfigPath = "config/sync.defaults.json"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// SyncConfig holds the stream synchronisation and hot-plug settings. Every
// field is optional; the Get* methods supply defaults for omitted fields.
type SyncConfig struct {
	// Matcher params
	TimestampWindow  *string `json:"timestamp_window,omitempty"`  // duration string like "16ms"
	TimestampTimeout *string `json:"timestamp_timeout,omitempty"` // duration string like "100ms"
	MaxQueue         *int    `json:"max_queue,omitempty"`
	MaxFrameLag      *int    `json:"max_frame_lag,omitempty"`
	Topology         *string `json:"topology,omitempty"` // DEFAULT, DI, DI_C, DLR, DLR_C

	// Hot-plug params
	HotplugPollInterval *string `json:"hotplug_poll_interval,omitempty"` // duration string like "1s"
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// DefaultSyncConfig returns a SyncConfig with every field set to its
// default.
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		TimestampWindow:     ptrString(matcher.DefaultWindow.String()),
		TimestampTimeout:    ptrString(matcher.DefaultTimeout.String()),
		MaxQueue:            ptrInt(matcher.DefaultMaxQueue),
		MaxFrameLag:         ptrInt(matcher.DefaultMaxFrameLag),
		Topology:            ptrString(matcher.Default.String()),
		HotplugPollInterval: ptrString("1s"),
	}
}

// LoadSyncConfig loads a SyncConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to defaults, so partial configs
// are safe.
func LoadSyncConfig(path string) (*SyncConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &SyncConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the current
// directory up towards the repository root. Panics if the file cannot be
// loaded, intended for test setup.
func MustLoadDefaultConfig() *SyncConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadSyncConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *SyncConfig) Validate() error {
	for _, d := range []struct {
		name  string
		value *string
	}{
		{"timestamp_window", c.TimestampWindow},
		{"timestamp_timeout", c.TimestampTimeout},
		{"hotplug_poll_interval", c.HotplugPollInterval},
	} {
		if d.value == nil || *d.value == "" {
			continue
		}
		v, err := time.ParseDuration(*d.value)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, d.name, *d.value, err)
		}
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, d.name, *d.value)
		}
	}

	if c.MaxQueue != nil && *c.MaxQueue < 1 {
		return fmt.Errorf("%w: max_queue must be at least 1, got %d", ErrInvalidConfig, *c.MaxQueue)
	}
	if c.MaxFrameLag != nil && *c.MaxFrameLag < 1 {
		return fmt.Errorf("%w: max_frame_lag must be at least 1, got %d", ErrInvalidConfig, *c.MaxFrameLag)
	}
	if c.Topology != nil && *c.Topology != "" {
		if _, err := matcher.ParseTopology(*c.Topology); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// GetTimestampWindow returns the timestamp_window value or the default.
func (c *SyncConfig) GetTimestampWindow() time.Duration {
	return parseDurationOr(c.TimestampWindow, matcher.DefaultWindow)
}

// GetTimestampTimeout returns the timestamp_timeout value or the default.
func (c *SyncConfig) GetTimestampTimeout() time.Duration {
	return parseDurationOr(c.TimestampTimeout, matcher.DefaultTimeout)
}

// GetHotplugPollInterval returns the hotplug_poll_interval value or the default.
func (c *SyncConfig) GetHotplugPollInterval() time.Duration {
	return parseDurationOr(c.HotplugPollInterval, time.Second)
}

// GetMaxQueue returns the max_queue value or the default.
func (c *SyncConfig) GetMaxQueue() int {
	if c.MaxQueue == nil {
		return matcher.DefaultMaxQueue
	}
	return *c.MaxQueue
}

// GetMaxFrameLag returns the max_frame_lag value or the default.
func (c *SyncConfig) GetMaxFrameLag() int {
	if c.MaxFrameLag == nil {
		return matcher.DefaultMaxFrameLag
	}
	return *c.MaxFrameLag
}

// GetTopology returns the configured topology, or DEFAULT when it is
// omitted or unknown.
func (c *SyncConfig) GetTopology() matcher.Topology {
	if c.Topology == nil {
		return matcher.Default
	}
	t, err := matcher.ParseTopology(*c.Topology)
	if err != nil {
		return matcher.Default
	}
	return t
}

// MatcherOptions converts the matcher params into matcher.Options. Clock
// and Metrics are left for the caller.
func (c *SyncConfig) MatcherOptions() matcher.Options {
	return matcher.Options{
		Window:      c.GetTimestampWindow(),
		Timeout:     c.GetTimestampTimeout(),
		MaxQueue:    c.GetMaxQueue(),
		MaxFrameLag: uint64(c.GetMaxFrameLag()),
	}
}
