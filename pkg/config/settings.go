package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RetrySettings tunes the read-retry loop.
type RetrySettings struct {
	Retries   int     `yaml:"retries"`
	BaseDelay string  `yaml:"base_delay"` // e.g. "500ms"
	MaxDelay  string  `yaml:"max_delay"`  // e.g. "10s"
	Jitter    float64 `yaml:"jitter"`     // 0..1, fraction of the delay
}

// PoolSettings tunes credential pool behavior.
type PoolSettings struct {
	DefaultCooldown string `yaml:"default_cooldown"` // used when the server sends no Retry-After
	WaitForCooldown bool   `yaml:"wait_for_cooldown"`
}

// Settings represents the optional nab.yaml tuning file.
type Settings struct {
	Retry RetrySettings `yaml:"retry"`
	Pool  PoolSettings  `yaml:"pool"`
}

// DefaultSettings returns the tuning used when no settings file exists.
func DefaultSettings() *Settings {
	return &Settings{
		Retry: RetrySettings{
			Retries:   2,
			BaseDelay: "500ms",
			MaxDelay:  "10s",
			Jitter:    0.2,
		},
		Pool: PoolSettings{
			DefaultCooldown: "60s",
			WaitForCooldown: false,
		},
	}
}

// LoadSettings loads a Settings from a YAML file. A missing file is not an
// error; defaults are returned. Fields absent from the file keep their
// default values.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}

	return settings, nil
}

func (s *Settings) validate() error {
	if s.Retry.Retries < 0 {
		return fmt.Errorf("retry.retries must not be negative")
	}
	if s.Retry.Jitter < 0 || s.Retry.Jitter > 1 {
		return fmt.Errorf("retry.jitter must be between 0 and 1")
	}
	for _, d := range []struct {
		name  string
		value string
	}{
		{"retry.base_delay", s.Retry.BaseDelay},
		{"retry.max_delay", s.Retry.MaxDelay},
		{"pool.default_cooldown", s.Pool.DefaultCooldown},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}

// BaseDelayDuration returns the parsed retry base delay.
func (s *Settings) BaseDelayDuration() time.Duration {
	return mustDuration(s.Retry.BaseDelay, 500*time.Millisecond)
}

// MaxDelayDuration returns the parsed retry delay cap.
func (s *Settings) MaxDelayDuration() time.Duration {
	return mustDuration(s.Retry.MaxDelay, 10*time.Second)
}

// DefaultCooldownDuration returns the parsed default credential cooldown.
func (s *Settings) DefaultCooldownDuration() time.Duration {
	return mustDuration(s.Pool.DefaultCooldown, 60*time.Second)
}

func mustDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
