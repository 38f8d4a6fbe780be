package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerAcquireAndRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	locker := NewLocker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "invoice-generation:1:2/2024", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = locker.TryLock(ctx, "invoice-generation:1:2/2024", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "invoice-generation:1:2/2024", "someone-else"))
	assert.True(t, mr.Exists("invoice-generation:1:2/2024"))

	require.NoError(t, locker.Release(ctx, "invoice-generation:1:2/2024", token))
	assert.False(t, mr.Exists("invoice-generation:1:2/2024"))
}

func TestLockerExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	locker := NewLocker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	_, ok, err := locker.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNilLocker(t *testing.T) {
	var locker *Locker
	assert.Nil(t, NewLocker(nil))
	assert.False(t, locker.Enabled())

	_, _, err := locker.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "k", "t"))
}

func TestTryLockValidatesArguments(t *testing.T) {
	mr := miniredis.RunT(t)
	locker := NewLocker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	_, _, err := locker.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = locker.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}
