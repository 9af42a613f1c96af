package storage

import (
	"context"
	"testing"
	"time"

	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLink(id, code, userID string) models.Link {
	return models.Link{
		ID:          id,
		ShortCode:   code,
		OriginalURL: "https://example.com",
		UserID:      userID,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
}

func TestMemoryStorage_CreateAndGet(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	err := s.CreateLink(ctx, newTestLink("id1", "abc123", "user1"))
	require.NoError(t, err)

	link, err := s.GetLinkByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.OriginalURL)

	_, err = s.GetLinkByCode(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_CreateConflict(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.CreateLink(ctx, newTestLink("id1", "abc123", "user1")))

	err := s.CreateLink(ctx, newTestLink("id2", "abc123", "user2"))
	assert.ErrorIs(t, err, ErrConflict)

	// алиас не должен пересекаться ни с кодами, ни с другими алиасами
	withAlias := newTestLink("id3", "xyz789", "user1")
	withAlias.CustomAlias = "abc123"
	err = s.CreateLink(ctx, withAlias)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStorage_GetByAlias(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	link := newTestLink("id1", "abc123", "user1")
	link.CustomAlias = "my-link"
	require.NoError(t, s.CreateLink(ctx, link))

	got, err := s.GetLinkByCode(ctx, "my-link")
	require.NoError(t, err)
	assert.Equal(t, "id1", got.ID)

	inUse, err := s.CodeInUse(ctx, "my-link")
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestMemoryStorage_DeleteLink(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.CreateLink(ctx, newTestLink("id1", "abc123", "user1")))

	deleted, err := s.DeleteLink(ctx, "id1", "user1")
	require.NoError(t, err)
	assert.Equal(t, "abc123", deleted.ShortCode)

	_, err = s.GetLinkByCode(ctx, "abc123")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.DeleteLink(ctx, "id1", "user1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_IncrementClicks(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.CreateLink(ctx, newTestLink("id1", "abc123", "user1")))
	require.NoError(t, s.IncrementClicks(ctx, "abc123"))

	link, err := s.GetLinkByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.Clicks)
}

func TestMemoryStorage_Webhooks(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	hook := models.Webhook{
		ID:       "wh1",
		UserID:   "user1",
		URL:      "https://hooks.example.com/x",
		Events:   []string{models.EventClick},
		IsActive: true,
	}
	require.NoError(t, s.CreateWebhook(ctx, hook))

	active, err := s.GetActiveWebhooks(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	now := time.Now()
	require.NoError(t, s.UpdateWebhookDelivery(ctx, "wh1", 5, false, nil))
	active, err = s.GetActiveWebhooks(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, s.UpdateWebhookDelivery(ctx, "wh1", 0, true, &now))
	all, err := s.GetWebhooksByUser(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.True(t, all[0].IsActive)
	assert.Equal(t, 0, all[0].FailureCount)
	assert.NotNil(t, all[0].LastTriggeredAt)
}

func TestMemoryStorage_Counts(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.CreateLink(ctx, newTestLink("id1", "a1", "user1")))
	require.NoError(t, s.CreateLink(ctx, newTestLink("id2", "a2", "user1")))
	require.NoError(t, s.CreateLink(ctx, newTestLink("id3", "a3", "user2")))

	urls, err := s.CountURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), urls)

	users, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), users)
}
