package platforms

import (
	"fmt"
	"os"
	"time"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeout           = 10 * time.Second
	DefaultRequestsPerMinute = 60
)

// Settings configures the remote side of one adapter
type Settings struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Live              *bool         `yaml:"live"` // Remote calls are on unless set to false

	// OAuth client used to refresh expired access tokens
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// LiveEnabled reports whether the adapter should attempt the remote call
func (s Settings) LiveEnabled() bool {
	return s.Live == nil || *s.Live
}

// Config is the platforms file
//
//	platforms:
//	  linkedin:
//	    base_url: https://api.linkedin.com/v2
//	    timeout: 15s
//	    requests_per_minute: 30
type Config struct {
	Platforms map[sourcing.Platform]Settings `yaml:"platforms"`
}

var defaultBaseURLs = map[sourcing.Platform]string{
	sourcing.PlatformLinkedIn: "https://api.linkedin.com/v2",
	sourcing.PlatformHHRu:     "https://api.hh.ru",
	sourcing.PlatformLalafo:   "https://lalafo.kg/api",
}

// LoadConfig reads the platforms file. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := &Config{Platforms: make(map[sourcing.Platform]Settings)}
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read platforms config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse platforms config %s: %w", path, err)
	}
	if config.Platforms == nil {
		config.Platforms = make(map[sourcing.Platform]Settings)
	}

	for platform := range config.Platforms {
		if !platform.Valid() {
			return nil, fmt.Errorf("unknown platform '%s' in %s", platform, path)
		}
	}

	return config, nil
}

// For returns the settings of a platform with defaults filled in
func (c *Config) For(platform sourcing.Platform) Settings {
	var settings Settings
	if c != nil {
		settings = c.Platforms[platform]
	}

	if settings.BaseURL == "" {
		settings.BaseURL = defaultBaseURLs[platform]
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.RequestsPerMinute <= 0 {
		settings.RequestsPerMinute = DefaultRequestsPerMinute
	}
	return settings
}
