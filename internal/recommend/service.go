// Package recommend produces five meal suggestions for a slot, either from a
// hosted Gemini model or, when that cannot serve, from a static table.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"nutriplan/internal/logging"
	"nutriplan/internal/mealplan"
	"nutriplan/internal/nutrition"
)

// Source says where a Result's items came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Request is one recommendation ask. Meals is the whole day; every filled
// slot counts toward consumed nutrition.
type Request struct {
	Profile *nutrition.PersonalInfo
	Slot    mealplan.Slot
	Meals   []mealplan.Meal
	// AllowOffline serves the static list instead of failing when no API key
	// is configured.
	AllowOffline bool
}

// Result carries the items and, for fallback results, why the live path was
// not used.
type Result struct {
	Items  []mealplan.FoodItem
	Source Source
	Reason error
}

// Degraded reports whether the items are the static fallback.
func (r Result) Degraded() bool {
	return r.Source == SourceFallback
}

// ClientFactory builds a live client for apiKey.
type ClientFactory func(ctx context.Context, apiKey string) (LLMClient, error)

// GeminiFactory returns a ClientFactory producing Gemini clients configured
// like base, with the key filled in.
func GeminiFactory(base GeminiConfig) ClientFactory {
	return func(ctx context.Context, apiKey string) (LLMClient, error) {
		cfg := base
		cfg.APIKey = apiKey
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Service picks the live client when one is configured and the static table
// otherwise. The client can be swapped at runtime.
type Service struct {
	mu      sync.RWMutex
	client  LLMClient
	factory ClientFactory
	log     *logging.Logger
}

// NewService creates a service with no live client. factory may be nil if
// only SetClient is used.
func NewService(factory ClientFactory) *Service {
	return &Service{
		factory: factory,
		log:     logging.Get(logging.CategoryRecommend),
	}
}

// SetAPIKey builds a live client for key and makes it current. On failure the
// previous client is kept.
func (s *Service) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrAPIKeyMissing
	}
	if s.factory == nil {
		return errors.New("no client factory configured")
	}
	client, err := s.factory(ctx, key)
	if err != nil {
		return fmt.Errorf("configure recommendation client: %w", err)
	}
	s.SetClient(client)
	s.log.Info("Live recommendations enabled")
	return nil
}

// SetClient installs client directly. nil disables live recommendations.
func (s *Service) SetClient(client LLMClient) {
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
}

// ClearAPIKey drops the live client.
func (s *Service) ClearAPIKey() {
	s.SetClient(nil)
	s.log.Info("Live recommendations disabled")
}

// HasAPIKey reports whether a live client is configured.
func (s *Service) HasAPIKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil
}

func (s *Service) current() LLMClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Recommend returns five suggestions for req.Slot.
//
// A missing profile, a missing key (unless AllowOffline) or a rejected key is
// returned as an error with no items. Every other failure yields the slot's
// fallback items with the cause in Result.Reason and a nil error. A live
// reply with between one and ItemCount usable items is returned as SourceLive
// with just those items.
func (s *Service) Recommend(ctx context.Context, req Request) (Result, error) {
	if req.Profile == nil {
		return Result{}, ErrProfileRequired
	}
	if !req.Slot.Valid() {
		return Result{}, fmt.Errorf("%w: %q", mealplan.ErrUnknownSlot, req.Slot)
	}

	client := s.current()
	if client == nil {
		if !req.AllowOffline {
			return Result{}, ErrAPIKeyMissing
		}
		s.log.Info("No API key, serving fallback for %s", req.Slot)
		return fallbackResult(req.Slot, ErrAPIKeyMissing), nil
	}

	timer := logging.StartTimer(logging.CategoryRecommend, "recommend "+string(req.Slot))
	defer timer.Stop()

	text, err := client.Complete(ctx, BuildPrompt(req))
	if err == nil {
		var items []mealplan.FoodItem
		items, err = ParseResponse(text, req.Slot)
		if err == nil {
			s.log.Info("Generated %d %s recommendations", len(items), req.Slot)
			return Result{Items: items, Source: SourceLive}, nil
		}
	}

	reason := classify(err)
	if reason == ErrAPIKeyInvalid {
		s.log.Error("Gemini rejected the API key: %v", err)
		return Result{}, fmt.Errorf("%w: %v", ErrAPIKeyInvalid, err)
	}
	s.log.Warn("Error generating %s recommendations, using fallback: %v", req.Slot, err)
	return fallbackResult(req.Slot, reason), nil
}

func fallbackResult(slot mealplan.Slot, reason error) Result {
	return Result{Items: Fallback(slot), Source: SourceFallback, Reason: reason}
}
