package resettoken

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
)

func TestConsumeResolvesAndDeletes(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	registrantID := id.RegistrantID(uuid.New())

	require.NoError(t, store.Put(ctx, "token-1", registrantID, time.Minute))

	got, err := store.Consume(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, registrantID, got)

	_, err = store.Consume(ctx, "token-1")
	require.ErrorIs(t, err, sentinel.ErrExpired, "consumption is single-use")
}

func TestConsumeUnknownToken(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Consume(context.Background(), "never-issued")
	require.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestConsumeExpiredToken(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	registrantID := id.RegistrantID(uuid.New())

	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Put(ctx, "token-2", registrantID, time.Minute))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := store.Consume(ctx, "token-2")
	require.ErrorIs(t, err, sentinel.ErrExpired)
}
