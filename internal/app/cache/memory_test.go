package cache

import (
	"context"
	"testing"
	"time"

	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Get(ctx, "abc123")
	assert.ErrorIs(t, err, ErrMiss)

	view := models.LinkView{ID: "id1", OriginalURL: "https://example.com", UserID: "user1"}
	require.NoError(t, m.Set(ctx, "abc123", view, time.Minute))

	got, err := m.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, view, got)

	require.NoError(t, m.Delete(ctx, "abc123"))
	_, err = m.Get(ctx, "abc123")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	view := models.LinkView{ID: "id1"}
	require.NoError(t, m.Set(ctx, "abc123", view, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := m.Get(ctx, "abc123")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_IncrWithExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, err := m.IncrWithExpiry(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	ttl, err := m.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestMemory_IncrWindowReset(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	count, err := m.IncrWithExpiry(ctx, "k", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	time.Sleep(5 * time.Millisecond)

	// после истечения окна счётчик начинается заново
	count, err = m.IncrWithExpiry(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemory_Flags(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	blocked, err := m.HasFlag(ctx, "blocked_ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, m.SetFlag(ctx, "blocked_ip:1.2.3.4", time.Minute))
	blocked, err = m.HasFlag(ctx, "blocked_ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, blocked)
}
