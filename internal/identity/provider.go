package identity

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sodematha/mathasvc/internal/domain"
)

// NewProvider restores the session from store and returns the provider
// selected by cfg.Mode.
func NewProvider(ctx context.Context, log zerolog.Logger, cfg domain.AuthConfig, client *http.Client, store domain.KeyValueStore) (domain.IdentityProvider, error) {
	session, err := NewSession(ctx, log, store)
	if err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case domain.AuthModeStub, "":
		return NewFixedCodeProvider(log, session, cfg.StubCode), nil
	case domain.AuthModeFirebase:
		if cfg.APIKey == "" {
			return nil, errors.New("auth.api_key is required for firebase sign-in")
		}
		return NewFirebaseProvider(log, session, client, FirebaseConfig{
			APIKey:         cfg.APIKey,
			Endpoint:       cfg.Endpoint,
			RecaptchaToken: cfg.RecaptchaToken,
		}), nil
	default:
		return nil, errors.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
