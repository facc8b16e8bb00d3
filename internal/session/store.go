// Package session keeps the short-lived sessions handed to customers after a
// successful table scan.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"qr_dine_backend/internal/models"
)

// ErrSessionNotFound is returned for unknown or expired tokens.
var ErrSessionNotFound = errors.New("scan session not found or expired")

// Store persists scan sessions until they expire.
type Store interface {
	Create(ctx context.Context, s models.ScanSession) error
	Get(ctx context.Context, token string) (*models.ScanSession, error)
	Delete(ctx context.Context, token string) error
}

// MemoryStore is a process-local Store. Expired entries are dropped lazily on
// access and by Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.ScanSession
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.ScanSession), now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, s models.ScanSession) error {
	if s.Token == "" {
		return errors.New("session token required")
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*models.ScanSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired sessions and reports how many were dropped.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for token, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, token)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
