package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sodematha/mathasvc/internal/domain"
)

// DefaultStubCode is accepted by FixedCodeProvider when no code is configured.
const DefaultStubCode = "123456"

// FixedCodeProvider signs in any valid phone number that presents the
// configured code. It sends nothing.
type FixedCodeProvider struct {
	*Session
	log  zerolog.Logger
	code string
	now  func() time.Time

	mu      sync.Mutex
	pending map[string]string
}

var _ domain.IdentityProvider = (*FixedCodeProvider)(nil)

func NewFixedCodeProvider(log zerolog.Logger, session *Session, code string) *FixedCodeProvider {
	if code == "" {
		code = DefaultStubCode
	}
	return &FixedCodeProvider{
		Session: session,
		log:     log.With().Str("module", "identity").Str("provider", "stub").Logger(),
		code:    code,
		now:     time.Now,
		pending: make(map[string]string),
	}
}

func (p *FixedCodeProvider) SendOTP(_ context.Context, phoneNumber string) (*domain.Confirmation, error) {
	phone, err := NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	c := &domain.Confirmation{SessionInfo: uuid.NewString(), PhoneNumber: phone}

	p.mu.Lock()
	p.pending[c.SessionInfo] = phone
	p.mu.Unlock()

	p.log.Info().Str("phone", phone).Msg("stub OTP issued")
	return c, nil
}

func (p *FixedCodeProvider) VerifyOTP(ctx context.Context, c *domain.Confirmation, code string) (*domain.User, error) {
	if c == nil {
		return nil, domain.ErrVerifyOTP
	}

	p.mu.Lock()
	phone, ok := p.pending[c.SessionInfo]
	if ok && code == p.code {
		delete(p.pending, c.SessionInfo)
	}
	p.mu.Unlock()

	if !ok || code != p.code {
		return nil, domain.ErrVerifyOTP
	}

	u := &domain.User{
		UID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte("tel:"+phone)).String(),
		PhoneNumber: phone,
		SignedInAt:  p.now().UTC(),
	}
	if err := p.signIn(ctx, u); err != nil {
		p.log.Error().Err(err).Msg("failed to store session")
		return nil, domain.ErrVerifyOTP
	}
	return u, nil
}
