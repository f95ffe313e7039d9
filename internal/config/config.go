package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"modelrelay/internal/llm/core"
	"modelrelay/internal/router"
)

const (
	defaultAnthropicVersion   = "2023-06-01"
	defaultRetryMaxRetries    = 0
	defaultRetryBaseDelay     = "300ms"
	defaultRetryMaxDelay      = "5s"
	defaultShortMessageWords  = 8
	defaultLongMessageWords   = 120
	defaultConfigRelativePath = ".config/modelrelay/config.toml"

	envOpenAIAPIKey     = "OPENAI_API_KEY"
	envAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	envGoogleAPIKey     = "GOOGLE_API_KEY"
	envOpenAIBaseURL    = "MODELRELAY_OPENAI_BASE_URL"
	envAnthropicBaseURL = "MODELRELAY_ANTHROPIC_BASE_URL"
	envGoogleBaseURL    = "MODELRELAY_GOOGLE_BASE_URL"
	envFastModel        = "MODELRELAY_FAST_MODEL"
	envFullModel        = "MODELRELAY_FULL_MODEL"
	envRetryMaxRetries  = "MODELRELAY_RETRY_MAX_RETRIES"
	envRetryBaseDelay   = "MODELRELAY_RETRY_BASE_DELAY"
	envRetryMaxDelay    = "MODELRELAY_RETRY_MAX_DELAY"
)

var (
	// ErrInvalidConfig indicates malformed configuration input.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the application configuration root.
type Config struct {
	Providers ProvidersConfig        `toml:"providers"`
	Models    map[string]ModelConfig `toml:"models"`
	Routing   RoutingConfig          `toml:"routing"`
}

// ProvidersConfig holds per-provider credentials and endpoints.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `toml:"openai"`
	Anthropic ProviderConfig `toml:"anthropic"`
	Google    ProviderConfig `toml:"google"`
	Retry     RetryConfig    `toml:"retry"`
}

// ProviderConfig configures one provider endpoint. Version is only
// meaningful for Anthropic.
type ProviderConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Version string `toml:"version"`
}

// RetryConfig stores retry policy as config-friendly values.
type RetryConfig struct {
	MaxRetries int    `toml:"max_retries"`
	BaseDelay  string `toml:"base_delay"`
	MaxDelay   string `toml:"max_delay"`
}

// ModelConfig describes one routable model tier in config-file shape.
type ModelConfig struct {
	Provider               string  `toml:"provider"`
	Model                  string  `toml:"model"`
	DisplayName            string  `toml:"display_name"`
	InputCost              float64 `toml:"input_cost"`
	OutputCost             float64 `toml:"output_cost"`
	MaxOutputTokens        int     `toml:"max_output_tokens"`
	SummarizationThreshold int     `toml:"summarization_threshold"`
}

// RoutingConfig mirrors the router rule set in config-file shape.
type RoutingConfig struct {
	FullPatterns []string         `toml:"full_patterns"`
	FastPatterns []string         `toml:"fast_patterns"`
	Thresholds   ThresholdsConfig `toml:"thresholds"`
}

// ThresholdsConfig tunes the router length heuristics.
type ThresholdsConfig struct {
	ShortMessageWords          int  `toml:"short_message_words"`
	LongMessageWords           int  `toml:"long_message_words"`
	FileAttachmentTriggersFull bool `toml:"file_attachment_triggers_full"`
}

// LoadOptions controls config loading behavior.
type LoadOptions struct {
	Path string
	// DotenvPath loads environment variables from a file before env
	// overrides apply. Empty means ".env" in the working directory; a
	// missing file is not an error.
	DotenvPath string
}

// RetrySettings is the parsed retry policy.
type RetrySettings struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Default returns application defaults: a cheap OpenAI tier for quick
// questions and an Anthropic tier for substantive work.
func Default() Config {
	return Config{
		Providers: ProvidersConfig{
			Anthropic: ProviderConfig{Version: defaultAnthropicVersion},
			Retry: RetryConfig{
				MaxRetries: defaultRetryMaxRetries,
				BaseDelay:  defaultRetryBaseDelay,
				MaxDelay:   defaultRetryMaxDelay,
			},
		},
		Models: map[string]ModelConfig{
			string(router.ModelKeyFast): {
				Provider:        "openai",
				Model:           "gpt-4o-mini",
				DisplayName:     "GPT-4o mini",
				InputCost:       0.15,
				OutputCost:      0.6,
				MaxOutputTokens: 4096,
			},
			string(router.ModelKeyFull): {
				Provider:        "anthropic",
				Model:           "claude-sonnet-4-20250514",
				DisplayName:     "Claude Sonnet 4",
				InputCost:       3.0,
				OutputCost:      15.0,
				MaxOutputTokens: 8192,
			},
		},
		Routing: RoutingConfig{
			FullPatterns: []string{"fix", "refactor", "implement", "debug", "write a"},
			FastPatterns: []string{`^what is`, `^what's`, `^how do i`, `^explain`},
			Thresholds: ThresholdsConfig{
				ShortMessageWords:          defaultShortMessageWords,
				LongMessageWords:           defaultLongMessageWords,
				FileAttachmentTriggersFull: true,
			},
		},
	}
}

// Load reads the config file, applies dotenv and environment overrides,
// then validates the result.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = defaultConfigPath()
	}

	if err := mergeConfigFile(&cfg, path); err != nil {
		return Config{}, err
	}
	loadDotenv(opts.DotenvPath)
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RetrySettings returns the parsed provider retry policy.
func (c Config) RetrySettings() (RetrySettings, error) {
	baseDelay, err := time.ParseDuration(strings.TrimSpace(c.Providers.Retry.BaseDelay))
	if err != nil {
		return RetrySettings{}, fmt.Errorf("%w: parse retry base_delay: %v", ErrInvalidConfig, err)
	}
	maxDelay, err := time.ParseDuration(strings.TrimSpace(c.Providers.Retry.MaxDelay))
	if err != nil {
		return RetrySettings{}, fmt.Errorf("%w: parse retry max_delay: %v", ErrInvalidConfig, err)
	}
	if c.Providers.Retry.MaxRetries < 0 {
		return RetrySettings{}, fmt.Errorf("%w: retry max_retries must be >= 0", ErrInvalidConfig)
	}
	return RetrySettings{
		MaxRetries: c.Providers.Retry.MaxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
	}, nil
}

// ModelConfigs returns the validated tier-to-model mapping in runtime shape.
func (c Config) ModelConfigs() (map[router.ModelKey]core.ModelConfig, error) {
	out := make(map[router.ModelKey]core.ModelConfig, len(c.Models))
	for key, model := range c.Models {
		provider, err := core.ParseProviderID(model.Provider)
		if err != nil {
			return nil, fmt.Errorf("%w: models.%s: %v", ErrInvalidConfig, key, err)
		}
		if strings.TrimSpace(model.Model) == "" {
			return nil, fmt.Errorf("%w: models.%s.model is required", ErrInvalidConfig, key)
		}
		if model.InputCost < 0 || model.OutputCost < 0 {
			return nil, fmt.Errorf("%w: models.%s costs must be >= 0", ErrInvalidConfig, key)
		}
		out[router.ModelKey(key)] = core.ModelConfig{
			Provider:               provider,
			Model:                  strings.TrimSpace(model.Model),
			DisplayName:            strings.TrimSpace(model.DisplayName),
			InputCostPerMTokUSD:    model.InputCost,
			OutputCostPerMTokUSD:   model.OutputCost,
			MaxOutputTokens:        model.MaxOutputTokens,
			SummarizationThreshold: model.SummarizationThreshold,
		}
	}
	for _, key := range []router.ModelKey{router.ModelKeyFast, router.ModelKeyFull} {
		if _, ok := out[key]; !ok {
			return nil, fmt.Errorf("%w: models.%s is required", ErrInvalidConfig, key)
		}
	}
	return out, nil
}

// RouterConfig returns the routing rule set in runtime shape.
func (c Config) RouterConfig() router.Config {
	return router.Config{
		FullPatterns: c.Routing.FullPatterns,
		FastPatterns: c.Routing.FastPatterns,
		Thresholds: router.Thresholds{
			ShortMessageWords:          c.Routing.Thresholds.ShortMessageWords,
			LongMessageWords:           c.Routing.Thresholds.LongMessageWords,
			FileAttachmentTriggersFull: c.Routing.Thresholds.FileAttachmentTriggersFull,
		},
	}
}

func mergeConfigFile(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadDotenv(path string) {
	if strings.TrimSpace(path) == "" {
		_ = godotenv.Load()
		return
	}
	_ = godotenv.Load(path)
}

func applyEnv(cfg *Config) error {
	if value, ok := os.LookupEnv(envOpenAIAPIKey); ok {
		cfg.Providers.OpenAI.APIKey = value
	}
	if value, ok := os.LookupEnv(envAnthropicAPIKey); ok {
		cfg.Providers.Anthropic.APIKey = value
	}
	if value, ok := os.LookupEnv(envGoogleAPIKey); ok {
		cfg.Providers.Google.APIKey = value
	}
	if value, ok := os.LookupEnv(envOpenAIBaseURL); ok && strings.TrimSpace(value) != "" {
		cfg.Providers.OpenAI.BaseURL = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envAnthropicBaseURL); ok && strings.TrimSpace(value) != "" {
		cfg.Providers.Anthropic.BaseURL = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envGoogleBaseURL); ok && strings.TrimSpace(value) != "" {
		cfg.Providers.Google.BaseURL = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envFastModel); ok && strings.TrimSpace(value) != "" {
		overrideModelID(cfg, string(router.ModelKeyFast), strings.TrimSpace(value))
	}
	if value, ok := os.LookupEnv(envFullModel); ok && strings.TrimSpace(value) != "" {
		overrideModelID(cfg, string(router.ModelKeyFull), strings.TrimSpace(value))
	}
	if value, ok := os.LookupEnv(envRetryMaxRetries); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, envRetryMaxRetries, err)
		}
		cfg.Providers.Retry.MaxRetries = parsed
	}
	if value, ok := os.LookupEnv(envRetryBaseDelay); ok && strings.TrimSpace(value) != "" {
		cfg.Providers.Retry.BaseDelay = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envRetryMaxDelay); ok && strings.TrimSpace(value) != "" {
		cfg.Providers.Retry.MaxDelay = strings.TrimSpace(value)
	}
	return nil
}

func overrideModelID(cfg *Config, key, model string) {
	entry := cfg.Models[key]
	entry.Model = model
	cfg.Models[key] = entry
}

func validate(cfg Config) error {
	if _, err := cfg.ModelConfigs(); err != nil {
		return err
	}
	if _, err := cfg.RetrySettings(); err != nil {
		return err
	}

	thresholds := cfg.Routing.Thresholds
	if thresholds.ShortMessageWords < 0 || thresholds.LongMessageWords < 0 {
		return fmt.Errorf("%w: routing thresholds must be >= 0", ErrInvalidConfig)
	}
	if thresholds.ShortMessageWords >= thresholds.LongMessageWords {
		return fmt.Errorf("%w: routing short_message_words must be < long_message_words", ErrInvalidConfig)
	}
	for _, pattern := range cfg.Routing.FastPatterns {
		if _, err := regexp.Compile("(?i)" + pattern); err != nil {
			return fmt.Errorf("%w: routing fast pattern %q: %v", ErrInvalidConfig, pattern, err)
		}
	}
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultConfigRelativePath)
}
