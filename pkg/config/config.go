// Package config loads humm configuration from a YAML file with environment
// variable overrides. Precedence: environment > file > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

const (
	// EnvDisableAutomation hard-disables browser automation when set to a
	// truthy value. Used in restricted deployment environments.
	EnvDisableAutomation = "HUMM_DISABLE_AUTOMATION"

	// EnvAPIKey and EnvBaseURL configure the OpenAI-compatible gateway.
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
)

// Defaults applied when neither file nor environment specifies a value.
const (
	DefaultModel          = "gpt-4o"
	DefaultImageModel     = "gpt-image-1"
	DefaultImageAltModel  = "dall-e-3"
	DefaultTimeoutMs      = 30000.0
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Browser configures the session controller.
type Browser struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool `yaml:"headless"`

	// ViewportWidth and ViewportHeight set the initial viewport size.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// TimeoutMs is the default operation timeout in milliseconds.
	TimeoutMs float64 `yaml:"timeout_ms"`

	// AllowedHosts optionally restricts navigation to matching hostnames.
	// Entries are glob patterns ("*.example.com", "example.*"). Empty means
	// no restriction.
	AllowedHosts []string `yaml:"allowed_hosts"`
}

// Gateway configures the language-model and image-synthesis providers.
type Gateway struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	// Model is the chat model used for analysis and summarization.
	Model string `yaml:"model"`

	// FallbackModel, when set, is tried after Model fails.
	FallbackModel string `yaml:"fallback_model"`

	// ImageModel and ImageAltModel are tried in order for image synthesis.
	ImageModel    string `yaml:"image_model"`
	ImageAltModel string `yaml:"image_alt_model"`
}

// Config is the full humm configuration.
type Config struct {
	// AutomationDisabled makes controller initialization fail immediately.
	// Settable only via HUMM_DISABLE_AUTOMATION.
	AutomationDisabled bool `yaml:"-"`

	Browser Browser `yaml:"browser"`
	Gateway Gateway `yaml:"gateway"`

	hostMatchers []glob.Glob
}

// Default returns a configuration with all defaults applied and environment
// overrides read.
func Default() *Config {
	cfg := &Config{
		Browser: Browser{
			Headless:       true,
			ViewportWidth:  DefaultViewportWidth,
			ViewportHeight: DefaultViewportHeight,
			TimeoutMs:      DefaultTimeoutMs,
		},
		Gateway: Gateway{
			Model:         DefaultModel,
			ImageModel:    DefaultImageModel,
			ImageAltModel: DefaultImageAltModel,
		},
	}
	cfg.applyEnv()
	return cfg
}

// Load reads a YAML config file, applies defaults for unset fields, then
// applies environment overrides. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.compileHostMatchers(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.ViewportWidth == 0 {
		c.Browser.ViewportWidth = DefaultViewportWidth
	}
	if c.Browser.ViewportHeight == 0 {
		c.Browser.ViewportHeight = DefaultViewportHeight
	}
	if c.Browser.TimeoutMs == 0 {
		c.Browser.TimeoutMs = DefaultTimeoutMs
	}
	if c.Gateway.Model == "" {
		c.Gateway.Model = DefaultModel
	}
	if c.Gateway.ImageModel == "" {
		c.Gateway.ImageModel = DefaultImageModel
	}
	if c.Gateway.ImageAltModel == "" {
		c.Gateway.ImageAltModel = DefaultImageAltModel
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDisableAutomation); v != "" {
		if disabled, err := strconv.ParseBool(v); err == nil {
			c.AutomationDisabled = disabled
		} else {
			// Any non-boolean, non-empty value counts as disabled.
			c.AutomationDisabled = true
		}
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Gateway.APIKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Gateway.BaseURL = v
	}
}

func (c *Config) compileHostMatchers() error {
	c.hostMatchers = c.hostMatchers[:0]
	for _, pattern := range c.Browser.AllowedHosts {
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid allowed_hosts pattern %q: %w", pattern, err)
		}
		c.hostMatchers = append(c.hostMatchers, g)
	}
	return nil
}

// HostAllowed reports whether navigation to the given hostname is permitted.
// An empty allowlist permits everything.
func (c *Config) HostAllowed(host string) bool {
	if len(c.Browser.AllowedHosts) == 0 {
		return true
	}
	if len(c.hostMatchers) != len(c.Browser.AllowedHosts) {
		// Matchers not compiled yet (config built by hand, e.g. in tests).
		if err := c.compileHostMatchers(); err != nil {
			return false
		}
	}
	for _, g := range c.hostMatchers {
		if g.Match(host) {
			return true
		}
	}
	return false
}
