package recommend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"nutriplan/internal/logging"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// LLMClient is the single call recommendations need from a hosted model.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // empty uses the public endpoint
	Timeout     time.Duration
	Temperature *float32
	HTTPClient  *http.Client
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		Model:   DefaultModel,
		Timeout: 30 * time.Second,
	}
}

// GeminiClient implements LLMClient on the Gemini generateContent endpoint.
// One request per call; nothing is retried.
type GeminiClient struct {
	client      *genai.Client
	model       string
	timeout     time.Duration
	temperature *float32
}

// NewGeminiClient creates a Gemini client. A blank key yields ErrAPIKeyMissing.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
	}, nil
}

// Model returns the model name requests are sent to.
func (c *GeminiClient) Model() string {
	return c.model
}

// Complete sends prompt as a single user turn and returns the response text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var genCfg *genai.GenerateContentConfig
	if c.temperature != nil {
		genCfg = &genai.GenerateContentConfig{Temperature: c.temperature}
	}

	timer := logging.StartTimer(logging.CategoryAPI, "generateContent "+c.model)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	timer.Stop()
	if err != nil {
		logging.Get(logging.CategoryAPI).Warn("Gemini request failed: %v", err)
		return "", fmt.Errorf("gemini generateContent failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response from %s", ErrMalformedResponse, c.model)
	}
	logging.APIDebug("Gemini responded with %d chars", len(text))
	return text, nil
}
