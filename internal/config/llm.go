package config

// LLMConfig configures the hosted recommendation model.
type LLMConfig struct {
	Provider string `yaml:"provider"` // only gemini is supported
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"` // empty = Gemini Developer API default
	Timeout  string `yaml:"timeout"`

	// Temperature is passed through when non-nil. Nil keeps the model default.
	Temperature *float32 `yaml:"temperature,omitempty"`
}

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// HasAPIKey reports whether a key is configured in the file or environment.
func (c LLMConfig) HasAPIKey() bool {
	return c.APIKey != ""
}
