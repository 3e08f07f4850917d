// Package otp issues and checks the 6-digit codes mailed during signup and
// password reset.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	DefaultTTL  = 10 * time.Minute
	MaxAttempts = 5
)

var (
	ErrNoCode          = errors.New("no code requested")
	ErrExpired         = errors.New("code expired")
	ErrMismatch        = errors.New("incorrect code")
	ErrTooManyAttempts = errors.New("too many incorrect attempts")
)

// Generate returns a 6-digit numeric code (100000–999999).
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Pending is a code waiting to be entered, bound to the address it was sent to.
type Pending struct {
	Code      string    `json:"code"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

func New(email string, ttl time.Duration, now time.Time) (*Pending, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	code, err := Generate()
	if err != nil {
		return nil, err
	}
	return &Pending{
		Code:      code,
		Email:     normalizeEmail(email),
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Verify checks a submitted email and code. A wrong guess counts against the
// attempt budget, so callers must persist p after a failed Verify.
func (p *Pending) Verify(email, code string, now time.Time) error {
	if p == nil {
		return ErrNoCode
	}
	if p.Attempts >= MaxAttempts {
		return ErrTooManyAttempts
	}
	if !now.Before(p.ExpiresAt) {
		return ErrExpired
	}

	emailOK := normalizeEmail(email) == p.Email
	codeOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(p.Code)) == 1
	if emailOK && codeOK {
		return nil
	}

	p.Attempts++
	if p.Attempts >= MaxAttempts {
		return ErrTooManyAttempts
	}
	return ErrMismatch
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
