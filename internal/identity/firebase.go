package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sodematha/mathasvc/internal/domain"
)

const defaultIdentityEndpoint = "https://identitytoolkit.googleapis.com"

// FirebaseProvider signs in with phone OTP through the Identity Toolkit REST
// API.
type FirebaseProvider struct {
	*Session
	log            zerolog.Logger
	client         *http.Client
	endpoint       string
	apiKey         string
	recaptchaToken string
	now            func() time.Time
}

var _ domain.IdentityProvider = (*FirebaseProvider)(nil)

type FirebaseConfig struct {
	APIKey         string
	Endpoint       string
	RecaptchaToken string
}

func NewFirebaseProvider(log zerolog.Logger, session *Session, client *http.Client, cfg FirebaseConfig) *FirebaseProvider {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultIdentityEndpoint
	}
	return &FirebaseProvider{
		Session:        session,
		log:            log.With().Str("module", "identity").Str("provider", "firebase").Logger(),
		client:         client,
		endpoint:       endpoint,
		apiKey:         cfg.APIKey,
		recaptchaToken: cfg.RecaptchaToken,
		now:            time.Now,
	}
}

type sendCodeRequest struct {
	PhoneNumber    string `json:"phoneNumber"`
	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

type sendCodeResponse struct {
	SessionInfo string `json:"sessionInfo"`
}

type signInRequest struct {
	SessionInfo string `json:"sessionInfo"`
	Code        string `json:"code"`
}

type signInResponse struct {
	IDToken     string `json:"idToken"`
	LocalID     string `json:"localId"`
	PhoneNumber string `json:"phoneNumber"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *FirebaseProvider) SendOTP(ctx context.Context, phoneNumber string) (*domain.Confirmation, error) {
	phone, err := NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	resp := sendCodeResponse{}
	if err := p.call(ctx, "accounts:sendVerificationCode", sendCodeRequest{
		PhoneNumber:    phone,
		RecaptchaToken: p.recaptchaToken,
	}, &resp); err != nil {
		p.log.Error().Err(err).Str("phone", phone).Msg("send verification code")
		return nil, domain.ErrSendOTP
	}
	if resp.SessionInfo == "" {
		p.log.Error().Msg("send verification code: empty sessionInfo")
		return nil, domain.ErrSendOTP
	}

	return &domain.Confirmation{SessionInfo: resp.SessionInfo, PhoneNumber: phone}, nil
}

func (p *FirebaseProvider) VerifyOTP(ctx context.Context, c *domain.Confirmation, code string) (*domain.User, error) {
	if c == nil || c.SessionInfo == "" {
		return nil, domain.ErrVerifyOTP
	}

	resp := signInResponse{}
	if err := p.call(ctx, "accounts:signInWithPhoneNumber", signInRequest{
		SessionInfo: c.SessionInfo,
		Code:        code,
	}, &resp); err != nil {
		p.log.Error().Err(err).Msg("sign in with phone number")
		return nil, domain.ErrVerifyOTP
	}

	phone := resp.PhoneNumber
	if phone == "" {
		phone = c.PhoneNumber
	}
	u := &domain.User{
		UID:         resp.LocalID,
		PhoneNumber: phone,
		IDToken:     resp.IDToken,
		SignedInAt:  p.now().UTC(),
	}
	if err := p.signIn(ctx, u); err != nil {
		p.log.Error().Err(err).Msg("failed to store session")
		return nil, domain.ErrVerifyOTP
	}
	return u, nil
}

func (p *FirebaseProvider) call(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}

	u := fmt.Sprintf("%s/v1/%s?key=%s", p.endpoint, method, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := apiError{}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error.Message != "" {
			return errors.Errorf("%s: %d %s", method, resp.StatusCode, apiErr.Error.Message)
		}
		return errors.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	if err := json.Unmarshal(b, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
