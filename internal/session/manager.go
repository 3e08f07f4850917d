package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultCookieName = "neurocalm_session"
	DefaultTTL        = 24 * time.Hour
)

type Options struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	// Secure marks the cookie Secure and SameSite=None, for deployments behind TLS.
	Secure bool
}

// Manager moves sessions between the cookie and the store.
type Manager struct {
	store Store
	opts  Options
	now   func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Manager{store: store, opts: opts, now: time.Now}
}

func (m *Manager) CookieName() string {
	return m.opts.CookieName
}

// Load returns the session named by the request cookie. A missing, forged or
// expired cookie yields a new empty session. Store errors are returned along
// with an empty session so callers can keep serving anonymous pages.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}, nil
	}
	token, ok := m.verify(cookie.Value)
	if !ok {
		return &Session{}, nil
	}
	s, err := m.store.Get(r.Context(), token)
	if err != nil {
		return &Session{}, fmt.Errorf("load session: %w", err)
	}
	if s == nil || !m.now().Before(s.ExpiresAt) {
		return &Session{}, nil
	}
	return s, nil
}

// Save persists the session with a fresh expiry and (re)sets the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.Token == "" {
		token, err := newToken()
		if err != nil {
			return err
		}
		s.Token = token
	}
	s.ExpiresAt = m.now().UTC().Add(m.opts.TTL).Truncate(time.Second)
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	http.SetCookie(w, m.cookie(m.sign(s.Token), int(m.opts.TTL.Seconds())))
	return nil
}

// Renew moves the session to a new token, dropping the old one. Called on
// login so a pre-login token cannot be reused.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.Token != "" {
		if err := m.store.Delete(ctx, s.Token); err != nil {
			return fmt.Errorf("renew session: %w", err)
		}
		s.Token = ""
	}
	return m.Save(ctx, w, s)
}

// Touch extends a logged-in session once less than half its lifetime remains.
func (m *Manager) Touch(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.LoggedIn() || s.Token == "" {
		return nil
	}
	if s.ExpiresAt.Sub(m.now()) > m.opts.TTL/2 {
		return nil
	}
	return m.Save(ctx, w, s)
}

// Destroy deletes the session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	var err error
	if s.Token != "" {
		if delErr := m.store.Delete(ctx, s.Token); delErr != nil {
			err = fmt.Errorf("destroy session: %w", delErr)
		}
	}
	*s = Session{}
	http.SetCookie(w, m.cookie("", -1))
	return err
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if m.opts.Secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func (m *Manager) sign(token string) string {
	mac := hmac.New(sha256.New, m.opts.Secret)
	mac.Write([]byte(token))
	return token + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	token := value[:i]
	if !hmac.Equal([]byte(m.sign(token)), []byte(value)) {
		return "", false
	}
	return token, true
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
