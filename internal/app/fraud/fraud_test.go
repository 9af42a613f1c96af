package fraud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linklytics/linklytics/internal/app/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFraudulent_WindowLimit(t *testing.T) {
	d := NewDetector(cache.NewMemory(), 10*time.Second, 3, time.Hour)
	ctx := context.Background()

	// первые три клика в окне проходят, четвёртый отклоняется
	for i := 0; i < 3; i++ {
		assert.False(t, d.IsFraudulent(ctx, "1.2.3.4", "abc123"), "click %d should pass", i+1)
	}
	assert.True(t, d.IsFraudulent(ctx, "1.2.3.4", "abc123"))
}

func TestIsFraudulent_WindowExpiry(t *testing.T) {
	d := NewDetector(cache.NewMemory(), 10*time.Millisecond, 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.False(t, d.IsFraudulent(ctx, "1.2.3.4", "abc123"))
	}
	require.True(t, d.IsFraudulent(ctx, "1.2.3.4", "abc123"))

	time.Sleep(15 * time.Millisecond)

	// после истечения окна счётчик обнуляется и клик проходит
	assert.False(t, d.IsFraudulent(ctx, "1.2.3.4", "abc123"))
}

func TestIsFraudulent_PerPairCounting(t *testing.T) {
	d := NewDetector(cache.NewMemory(), 10*time.Second, 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.False(t, d.IsFraudulent(ctx, "1.2.3.4", "abc123"))
	}

	// другой IP и другой код считаются независимо
	assert.False(t, d.IsFraudulent(ctx, "5.6.7.8", "abc123"))
	assert.False(t, d.IsFraudulent(ctx, "1.2.3.4", "xyz789"))
}

func TestBlockAndIsBlocked(t *testing.T) {
	d := NewDetector(cache.NewMemory(), 10*time.Second, 3, time.Hour)
	ctx := context.Background()

	assert.False(t, d.IsBlocked(ctx, "1.2.3.4"))

	require.NoError(t, d.Block(ctx, "1.2.3.4"))
	assert.True(t, d.IsBlocked(ctx, "1.2.3.4"))
	assert.False(t, d.IsBlocked(ctx, "5.6.7.8"))
}

type failingCounters struct{}

func (failingCounters) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingCounters) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCounters) HasFlag(ctx context.Context, key string) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingCounters) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, errors.New("connection refused")
}

func TestFailOpen(t *testing.T) {
	// при недоступных счётчиках запросы пропускаются
	d := NewDetector(failingCounters{}, 10*time.Second, 3, time.Hour)
	ctx := context.Background()

	assert.False(t, d.IsBlocked(ctx, "1.2.3.4"))
	for i := 0; i < 10; i++ {
		assert.False(t, d.IsFraudulent(ctx, "1.2.3.4", "abc123"))
	}
}
