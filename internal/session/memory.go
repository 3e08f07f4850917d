package session

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Used in tests and single-node
// development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	rec, ok := m.records[token]
	m.mu.Unlock()
	if !ok || !m.now().Before(rec.expiresAt) {
		return nil, nil
	}
	data, err := DecodeData(rec.data)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Data: data, ExpiresAt: rec.expiresAt}, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := EncodeData(s.Data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[s.Token] = memoryRecord{data: data, expiresAt: s.ExpiresAt}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.records, token)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var n int64
	for token, rec := range m.records {
		if !now.Before(rec.expiresAt) {
			delete(m.records, token)
			n++
		}
	}
	return n, nil
}
