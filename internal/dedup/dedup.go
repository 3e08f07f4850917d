// Package dedup recognizes repeated identical form submissions within a short
// window, so a double-clicked submit does not write twice.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// Checker records keys for a window. Seen returns true when key was already
// recorded and has not expired; otherwise it records key and returns false.
type Checker interface {
	Seen(ctx context.Context, key string, window time.Duration) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Key derives a stable key from a session token, a form name and its answers.
func Key(token, form string, answers map[string]string) string {
	names := make([]string, 0, len(answers))
	for name := range answers {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(strings.TrimSpace(answers[name])))
		h.Write([]byte{0})
	}
	return token + ":" + form + ":" + hex.EncodeToString(h.Sum(nil))
}

type MemoryChecker struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryChecker() *MemoryChecker {
	return &MemoryChecker{seen: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryChecker) Seen(_ context.Context, key string, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if until, ok := m.seen[key]; ok && now.Before(until) {
		return true, nil
	}
	m.seen[key] = now.Add(window)
	return false, nil
}

func (m *MemoryChecker) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.seen, key)
	m.mu.Unlock()
	return nil
}

// Cleanup drops expired keys.
func (m *MemoryChecker) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, until := range m.seen {
		if !now.Before(until) {
			delete(m.seen, key)
		}
	}
}
