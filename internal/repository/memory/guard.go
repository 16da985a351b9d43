package memory

import (
	"context"
	"sync"
	"time"
)

// RestoreGuard реализует RestoreGuard на in-memory map с ленивым истечением
// Только для dev/test: ключи теряются при рестарте и не видны другим инстансам
type RestoreGuard struct {
	mu     sync.Mutex
	claims map[string]time.Time // ключ -> время истечения
}

// NewRestoreGuard создаёт пустой guard
func NewRestoreGuard() *RestoreGuard {
	return &RestoreGuard{
		claims: make(map[string]time.Time),
	}
}

// Claim занимает key на ttl, если нет действующего занятия
func (g *RestoreGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cleanupExpiredLocked()

	if _, exists := g.claims[key]; exists {
		return false, nil
	}
	g.claims[key] = time.Now().Add(ttl)
	return true, nil
}

// Release снимает занятие key
func (g *RestoreGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.claims, key)
	return nil
}

// cleanupExpiredLocked удаляет истёкшие ключи, вызывать под mu
func (g *RestoreGuard) cleanupExpiredLocked() {
	now := time.Now()
	for key, expiresAt := range g.claims {
		if now.After(expiresAt) {
			delete(g.claims, key)
		}
	}
}
