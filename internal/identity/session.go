package identity

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sodematha/mathasvc/internal/domain"
)

// SessionKey is where the signed-in user is kept in the key-value store.
const SessionKey = "auth_user"

// Session holds the current user, persists it and pushes every change to
// subscribers.
type Session struct {
	log   zerolog.Logger
	store domain.KeyValueStore

	mu   sync.RWMutex
	user *domain.User
	next int
	subs map[int]func(*domain.User)
}

// NewSession restores a previously persisted user from store, if any.
func NewSession(ctx context.Context, log zerolog.Logger, store domain.KeyValueStore) (*Session, error) {
	s := &Session{
		log:   log.With().Str("module", "identity").Logger(),
		store: store,
		subs:  make(map[int]func(*domain.User)),
	}

	raw, ok, err := store.Get(ctx, SessionKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	if ok && raw != "" {
		u := &domain.User{}
		if err := json.Unmarshal([]byte(raw), u); err != nil {
			s.log.Warn().Err(err).Msg("discarding unreadable session")
			if err := store.Delete(ctx, SessionKey); err != nil {
				return nil, errors.Wrap(err, "failed to discard session")
			}
		} else {
			s.user = u
		}
	}
	return s, nil
}

// CurrentUser returns a copy of the signed-in user or nil.
func (s *Session) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Subscribe calls fn on every sign in and sign out.
func (s *Session) Subscribe(fn func(*domain.User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) signIn(ctx context.Context, u *domain.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	if err := s.store.Set(ctx, SessionKey, string(b)); err != nil {
		return errors.Wrap(err, "failed to persist session")
	}

	s.mu.Lock()
	c := *u
	s.user = &c
	s.mu.Unlock()

	s.log.Info().Str("uid", u.UID).Msg("signed in")
	s.notify()
	return nil
}

// SignOut forgets the current user.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.store.Delete(ctx, SessionKey); err != nil {
		s.log.Error().Err(err).Msg("failed to remove session")
		return domain.ErrSignOut
	}

	s.mu.Lock()
	was := s.user
	s.user = nil
	s.mu.Unlock()

	if was != nil {
		s.log.Info().Str("uid", was.UID).Msg("signed out")
		s.notify()
	}
	return nil
}

func (s *Session) notify() {
	u := s.CurrentUser()

	s.mu.RLock()
	fns := make([]func(*domain.User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(u)
	}
}
