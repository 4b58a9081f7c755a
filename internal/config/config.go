package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Local   LocalConfig   `yaml:"local"`
	Run     RunConfig     `yaml:"run"`
	Context ContextConfig `yaml:"context"`
	Output  OutputConfig  `yaml:"output"`
	Watcher WatcherConfig `yaml:"watcher"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig holds settings for the remote execution service.
type ServiceConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key,omitempty"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Retry       RetryConfig   `yaml:"retry"`
}

// RetryConfig holds retry settings for service calls.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// LocalConfig holds settings for local (in-process) execution.
type LocalConfig struct {
	// Provider: ollama or gemini.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	OllamaBaseURL string `yaml:"ollama_base_url,omitempty"`
	GeminiKey     string `yaml:"gemini_key,omitempty"`
}

// RunConfig holds per-run settings.
type RunConfig struct {
	// Timeout bounds a whole run; zero means no autonomous timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// ContextConfig holds context-gathering settings.
type ContextConfig struct {
	MaxFileSize int64         `yaml:"max_file_size"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// OutputConfig holds output rendering settings.
type OutputConfig struct {
	// Theme for markdown rendering: dark, light, or auto.
	Theme string `yaml:"theme"`
	Plain bool   `yaml:"plain"`
}

// WatcherConfig holds watch-mode settings.
type WatcherConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File enables logging to quill.log in the config directory.
	File bool `yaml:"file"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			HTTPTimeout: 120 * time.Second,
			Retry: RetryConfig{
				MaxRetries: 3,
				RetryDelay: 1 * time.Second,
				MaxDelay:   30 * time.Second,
			},
		},
		Local: LocalConfig{
			Provider:      "ollama",
			OllamaBaseURL: "http://localhost:11434",
		},
		Context: ContextConfig{
			MaxFileSize: 1 << 20,
			HTTPTimeout: 30 * time.Second,
		},
		Output: OutputConfig{
			Theme: "auto",
		},
		Watcher: WatcherConfig{
			DebounceMs: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
