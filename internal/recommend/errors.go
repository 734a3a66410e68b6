package recommend

import (
	"errors"
	"strings"

	"google.golang.org/genai"
)

// Blocking conditions. Recommend returns these as errors with no items.
var (
	ErrProfileRequired = errors.New("complete your personal information to get personalized recommendations")
	ErrAPIKeyMissing   = errors.New("gemini api key is not configured")
	ErrAPIKeyInvalid   = errors.New("gemini api key was rejected")
)

// Degradation reasons. Recommend reports these in Result.Reason alongside the
// fallback items.
var (
	ErrServiceOverloaded = errors.New("recommendation service is busy, try again in a few minutes")
	ErrMalformedResponse = errors.New("recommendation response could not be parsed")
	ErrServiceFailure    = errors.New("recommendation service failed")
)

// classify maps a client error onto one of the sentinel errors above.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrMalformedResponse):
		return ErrMalformedResponse
	case errors.Is(err, ErrAPIKeyMissing):
		return ErrAPIKeyMissing
	case errors.Is(err, ErrAPIKeyInvalid):
		return ErrAPIKeyInvalid
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return ErrAPIKeyInvalid
		case apiErr.Code == 400 && mentionsAPIKey(apiErr.Message):
			return ErrAPIKeyInvalid
		case apiErr.Code == 429 || apiErr.Code == 503:
			return ErrServiceOverloaded
		case apiErr.Status == "UNAVAILABLE" || apiErr.Status == "RESOURCE_EXHAUSTED":
			return ErrServiceOverloaded
		}
	}

	msg := err.Error()
	switch {
	case mentionsAPIKey(msg):
		return ErrAPIKeyInvalid
	case isOverloadMessage(msg):
		return ErrServiceOverloaded
	}
	return ErrServiceFailure
}

func mentionsAPIKey(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "api key") || strings.Contains(lower, "api_key_invalid")
}

// isOverloadMessage checks if the error message indicates the service is
// temporarily unable to serve.
func isOverloadMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "overloaded") ||
		strings.Contains(lower, "503") ||
		strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "quota exceeded") ||
		strings.Contains(lower, "rate limit")
}
