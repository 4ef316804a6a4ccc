package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, 5*time.Minute), mr
}

func TestIssueAndVerify(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+15551234567")
	require.NoError(t, err)
	require.Len(t, code, 6)

	require.NoError(t, store.Verify(ctx, "+15551234567", code))
}

func TestVerifyConsumesCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+15551234567")
	require.NoError(t, err)

	require.NoError(t, store.Verify(ctx, "+15551234567", code))
	assert.ErrorIs(t, store.Verify(ctx, "+15551234567", code), ErrCodeExpired)
}

func TestVerifyWrongCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+15551234567")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Verify(ctx, "+15551234567", "000000"), ErrCodeMismatch)
	// A mismatch must not consume the code.
	require.NoError(t, store.Verify(ctx, "+15551234567", code))
}

func TestCodeExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "+15551234567")
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)
	assert.ErrorIs(t, store.Verify(ctx, "+15551234567", code), ErrCodeExpired)
}

func TestReissueReplacesCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, "+15551234567")
	require.NoError(t, err)
	second, err := store.Issue(ctx, "+15551234567")
	require.NoError(t, err)

	if first == second {
		t.Skip("codes collided")
	}
	assert.ErrorIs(t, store.Verify(ctx, "+15551234567", first), ErrCodeMismatch)
	require.NoError(t, store.Verify(ctx, "+15551234567", second))
}
