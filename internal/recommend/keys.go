package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nutriplan/internal/logging"
)

// KeySource says where the active API key came from.
type KeySource string

const (
	KeyNone    KeySource = ""
	KeyConfig  KeySource = "config"
	KeyStorage KeySource = "storage"
)

var (
	// ErrEmptyAPIKey is returned when saving a blank key.
	ErrEmptyAPIKey = errors.New("api key is empty")
	// ErrKeyStorage wraps failures to persist or clear the stored key.
	ErrKeyStorage = errors.New("api key storage failed")
)

// KeyStore persists the user-entered key.
type KeyStore interface {
	GetAPIKey(ctx context.Context) string
	SaveAPIKey(ctx context.Context, key string) error
	ClearAPIKey(ctx context.Context) error
}

// Keys decides which API key drives a Service. A configured key (config file
// or environment) always wins over the stored one; the stored key only
// matters when nothing is configured.
type Keys struct {
	svc        *Service
	store      KeyStore
	configured func() string
	log        *logging.Logger
}

// NewKeys ties svc to store. configured returns the current configured key
// and is read on every call so reloaded config takes effect; nil means none.
func NewKeys(svc *Service, store KeyStore, configured func() string) *Keys {
	if configured == nil {
		configured = func() string { return "" }
	}
	return &Keys{
		svc:        svc,
		store:      store,
		configured: configured,
		log:        logging.Get(logging.CategoryRecommend),
	}
}

func (k *Keys) configuredKey() string {
	return strings.TrimSpace(k.configured())
}

// Activate points the service at the winning key, or disables live
// recommendations when there is none. On error the previous client is kept.
func (k *Keys) Activate(ctx context.Context) (KeySource, error) {
	key, source := k.configuredKey(), KeyConfig
	if key == "" {
		key, source = k.store.GetAPIKey(ctx), KeyStorage
	}
	if key == "" {
		if k.svc.HasAPIKey() {
			k.svc.ClearAPIKey()
		}
		return KeyNone, nil
	}
	if err := k.svc.SetAPIKey(ctx, key); err != nil {
		k.log.Warn("API key from %s not usable: %v", source, err)
		return KeyNone, err
	}
	return source, nil
}

// Source reports where the active key came from.
func (k *Keys) Source() KeySource {
	switch {
	case !k.svc.HasAPIKey():
		return KeyNone
	case k.configuredKey() != "":
		return KeyConfig
	default:
		return KeyStorage
	}
}

// Save stores a user-entered key. With no configured key the new key is
// activated first and only persisted once a client was built from it, so a
// rejected key is never stored. With a configured key it is stored and the
// configured one stays active.
func (k *Keys) Save(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyAPIKey
	}
	if k.configuredKey() == "" {
		if err := k.svc.SetAPIKey(ctx, key); err != nil {
			return err
		}
	}
	if err := k.store.SaveAPIKey(ctx, key); err != nil {
		// Back to whatever was stored before.
		if _, aerr := k.Activate(ctx); aerr != nil {
			k.log.Error("Restoring previous API key failed: %v", aerr)
		}
		return fmt.Errorf("%w: %w", ErrKeyStorage, err)
	}
	return nil
}

// Clear removes the stored key. A configured key stays active.
func (k *Keys) Clear(ctx context.Context) error {
	if err := k.store.ClearAPIKey(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyStorage, err)
	}
	_, err := k.Activate(ctx)
	return err
}
