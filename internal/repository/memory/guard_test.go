package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestoreGuard_ClaimOnce(t *testing.T) {
	ctx := context.Background()
	guard := NewRestoreGuard()

	claimed, err := guard.Claim(ctx, "order-1", time.Minute)
	assert.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = guard.Claim(ctx, "order-1", time.Minute)
	assert.NoError(t, err)
	assert.False(t, claimed)

	// другие ключи не затрагиваются
	claimed, err = guard.Claim(ctx, "order-2", time.Minute)
	assert.NoError(t, err)
	assert.True(t, claimed)
}

func TestRestoreGuard_TTLExpiration(t *testing.T) {
	ctx := context.Background()
	guard := NewRestoreGuard()

	claimed, err := guard.Claim(ctx, "order-1", 10*time.Millisecond)
	assert.NoError(t, err)
	assert.True(t, claimed)

	time.Sleep(20 * time.Millisecond)

	claimed, err = guard.Claim(ctx, "order-1", time.Minute)
	assert.NoError(t, err)
	assert.True(t, claimed)
}

func TestRestoreGuard_Release(t *testing.T) {
	ctx := context.Background()
	guard := NewRestoreGuard()

	_, err := guard.Claim(ctx, "order-1", time.Minute)
	assert.NoError(t, err)
	assert.NoError(t, guard.Release(ctx, "order-1"))

	claimed, err := guard.Claim(ctx, "order-1", time.Minute)
	assert.NoError(t, err)
	assert.True(t, claimed)
}
