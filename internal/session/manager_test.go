package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store, Options{Secret: []byte("test-secret"), TTL: time.Hour}), store
}

func requestWith(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestSaveAndLoad(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	s := &Session{}
	s.SetUser(7, "ada@example.com", "Ada")
	s.Data.Run = &Run{ResultID: 3, TestType: "Dass-21", Recorded: 1}

	rec := httptest.NewRecorder()
	if err := m.Save(ctx, rec, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Token == "" {
		t.Fatal("save did not assign a token")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if !c.HttpOnly || c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie flags = httponly %v secure %v samesite %v", c.HttpOnly, c.Secure, c.SameSite)
	}
	if c.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", c.MaxAge)
	}

	loaded, err := m.Load(requestWith(cookies))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Token != s.Token || loaded.Data.UserID != 7 || loaded.Data.Email != "ada@example.com" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Data.Run == nil || loaded.Data.Run.ResultID != 3 || loaded.Data.Run.Recorded != 1 {
		t.Errorf("run = %+v", loaded.Data.Run)
	}
}

func TestLoadRejectsTamperedCookie(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	s := &Session{}
	s.SetUser(1, "a@example.com", "A")
	rec := httptest.NewRecorder()
	if err := m.Save(ctx, rec, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	forged := &http.Cookie{Name: DefaultCookieName, Value: s.Token + ".bogus"}
	loaded, err := m.Load(requestWith([]*http.Cookie{forged}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.LoggedIn() || loaded.Token != "" {
		t.Errorf("forged cookie produced session %+v", loaded)
	}

	bare := &http.Cookie{Name: DefaultCookieName, Value: s.Token}
	loaded, _ = m.Load(requestWith([]*http.Cookie{bare}))
	if loaded.LoggedIn() {
		t.Error("unsigned cookie produced a logged-in session")
	}
}

func TestLoadWithoutCookie(t *testing.T) {
	m, _ := newTestManager()
	s, err := m.Load(requestWith(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s == nil || s.LoggedIn() {
		t.Errorf("expected empty session, got %+v", s)
	}
}

func TestRenewDropsOldToken(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	s := &Session{}
	if err := m.Save(ctx, httptest.NewRecorder(), s); err != nil {
		t.Fatalf("save: %v", err)
	}
	old := s.Token

	if err := m.Renew(ctx, httptest.NewRecorder(), s); err != nil {
		t.Fatalf("renew: %v", err)
	}
	if s.Token == old {
		t.Fatal("renew kept the same token")
	}
	if got, _ := store.Get(ctx, old); got != nil {
		t.Error("old token still present")
	}
	if got, _ := store.Get(ctx, s.Token); got == nil {
		t.Error("new token missing")
	}
}

func TestDestroy(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	s := &Session{}
	s.SetUser(2, "b@example.com", "B")
	if err := m.Save(ctx, httptest.NewRecorder(), s); err != nil {
		t.Fatalf("save: %v", err)
	}
	token := s.Token

	rec := httptest.NewRecorder()
	if err := m.Destroy(ctx, rec, s); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if s.LoggedIn() || s.Token != "" {
		t.Errorf("session not cleared: %+v", s)
	}
	if got, _ := store.Get(ctx, token); got != nil {
		t.Error("destroyed session still stored")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected expiring cookie, got %+v", cookies)
	}
}

func TestTouchExtendsAgingSession(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	s := &Session{}
	s.SetUser(3, "c@example.com", "C")
	if err := m.Save(ctx, httptest.NewRecorder(), s); err != nil {
		t.Fatalf("save: %v", err)
	}
	first := s.ExpiresAt

	m.now = func() time.Time { return start.Add(10 * time.Minute) }
	rec := httptest.NewRecorder()
	if err := m.Touch(ctx, rec, s); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if !s.ExpiresAt.Equal(first) || len(rec.Result().Cookies()) != 0 {
		t.Error("fresh session should not be re-saved")
	}

	m.now = func() time.Time { return start.Add(40 * time.Minute) }
	rec = httptest.NewRecorder()
	if err := m.Touch(ctx, rec, s); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if !s.ExpiresAt.After(first) {
		t.Errorf("expiry not extended: %v", s.ExpiresAt)
	}
}

func TestSecureCookie(t *testing.T) {
	m := NewManager(NewMemoryStore(), Options{Secret: []byte("x"), Secure: true})
	rec := httptest.NewRecorder()
	if err := m.Save(context.Background(), rec, &Session{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	c := rec.Result().Cookies()[0]
	if !c.Secure || c.SameSite != http.SameSiteNoneMode {
		t.Errorf("secure cookie = %+v", c)
	}
	if !strings.Contains(c.Value, ".") {
		t.Errorf("cookie value not signed: %q", c.Value)
	}
}

func TestResetAllowed(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Minute)
	s := &Session{Data: Data{ResetEmail: "a@example.com", ResetUntil: &until}}
	if !s.ResetAllowed(now) {
		t.Error("reset should be allowed before deadline")
	}
	if s.ResetAllowed(now.Add(2 * time.Minute)) {
		t.Error("reset should close after deadline")
	}
	s.ClearReset()
	if s.ResetAllowed(now) {
		t.Error("reset allowed after ClearReset")
	}
}

func TestFromContextDefault(t *testing.T) {
	if s := FromContext(context.Background()); s == nil || s.LoggedIn() {
		t.Errorf("FromContext = %+v", s)
	}
	s := &Session{Token: "t"}
	if got := FromContext(WithSession(context.Background(), s)); got != s {
		t.Error("FromContext did not return stored session")
	}
}
