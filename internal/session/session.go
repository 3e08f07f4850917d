// Package session keeps per-browser server-side state behind a signed cookie.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/neurocalm/internal/otp"
)

// Session is the state loaded for one request. A session with an empty Token
// has never been saved.
type Session struct {
	Token     string
	Data      Data
	ExpiresAt time.Time
}

type Data struct {
	UserID    int64  `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`

	SignupOTP *otp.Pending `json:"signup_otp,omitempty"`
	ResetOTP  *otp.Pending `json:"reset_otp,omitempty"`

	// Set once a reset code has been verified; allows one password change
	// until ResetUntil.
	ResetEmail string     `json:"reset_email,omitempty"`
	ResetUntil *time.Time `json:"reset_until,omitempty"`

	Run *Run `json:"run,omitempty"`
}

// Run tracks the questionnaire currently being filled in.
type Run struct {
	ResultID int64  `json:"result_id"`
	TestType string `json:"test_type"`
	// Recorded counts the pages persisted so far (1 = depression, 3 = complete).
	Recorded int `json:"recorded"`
}

// Store persists sessions by token. Get returns (nil, nil) for unknown or
// expired tokens.
type Store interface {
	Get(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
}

func (s *Session) LoggedIn() bool {
	return s != nil && s.Data.UserID != 0
}

func (s *Session) SetUser(id int64, email, firstName string) {
	s.Data.UserID = id
	s.Data.Email = email
	s.Data.FirstName = firstName
}

// ResetAllowed reports whether a verified password reset is still open.
func (s *Session) ResetAllowed(now time.Time) bool {
	return s.Data.ResetEmail != "" && s.Data.ResetUntil != nil && now.Before(*s.Data.ResetUntil)
}

func (s *Session) ClearReset() {
	s.Data.ResetOTP = nil
	s.Data.ResetEmail = ""
	s.Data.ResetUntil = nil
}

// EncodeData serializes session data for storage backends.
func EncodeData(d Data) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return b, nil
}

func DecodeData(b []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return Data{}, fmt.Errorf("decode session: %w", err)
	}
	return d, nil
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or a fresh unsaved one when the
// session middleware did not run.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}
