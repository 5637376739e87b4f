package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSendOTP      = errors.New("failed to send OTP, please try again")
	ErrVerifyOTP    = errors.New("invalid OTP, please try again")
	ErrSignOut      = errors.New("failed to sign out, please try again")
	ErrInvalidPhone = errors.New("phone number must be a 10-digit mobile number")
)

// User is the signed-in devotee.
type User struct {
	UID         string    `json:"uid"`
	PhoneNumber string    `json:"phoneNumber"`
	IDToken     string    `json:"idToken,omitempty"`
	SignedInAt  time.Time `json:"signedInAt"`
}

// Confirmation identifies a pending OTP verification.
type Confirmation struct {
	SessionInfo string `json:"sessionInfo"`
	PhoneNumber string `json:"phoneNumber"`
}

// IdentityProvider is the sign-in capability. Implementations are chosen once
// at startup from configuration.
type IdentityProvider interface {
	SendOTP(ctx context.Context, phoneNumber string) (*Confirmation, error)
	VerifyOTP(ctx context.Context, confirmation *Confirmation, code string) (*User, error)
	CurrentUser() *User
	SignOut(ctx context.Context) error
	// Subscribe registers fn for every auth state change and returns a
	// function that removes it.
	Subscribe(fn func(*User)) (unsubscribe func())
}
