package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"noria.fr/campusnet/pkg/apperror"
)

func TestCheckAndSetRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	allowed, err := CheckAndSetRateLimit(ctx, rdb, userID, "post", 15*time.Second)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = CheckAndSetRateLimit(ctx, rdb, userID, "post", 15*time.Second)
	require.NoError(t, err)
	require.False(t, allowed)

	// A different action has its own cooldown key.
	allowed, err = CheckAndSetRateLimit(ctx, rdb, userID, "message", time.Second)
	require.NoError(t, err)
	require.True(t, allowed)

	mr.FastForward(16 * time.Second)
	allowed, err = CheckAndSetRateLimit(ctx, rdb, userID, "post", 15*time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestClearRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	_, err := CheckAndSetRateLimit(ctx, rdb, userID, "post", 15*time.Second)
	require.NoError(t, err)
	require.NoError(t, ClearRateLimit(ctx, rdb, userID, "post"))

	allowed, err := CheckAndSetRateLimit(ctx, rdb, userID, "post", 15*time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestNilClientDisablesLimiting(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	for i := 0; i < 3; i++ {
		allowed, err := CheckAndSetRateLimit(ctx, nil, userID, "post", time.Second)
		require.NoError(t, err)
		require.True(t, allowed)
	}
}

func TestRateLimitErrorMatchesSentinel(t *testing.T) {
	err := &RateLimitError{Message: "slow down", RetryAfter: 3 * time.Second}
	require.True(t, errors.Is(err, apperror.ErrRateLimitExceeded))
	require.Equal(t, "slow down", err.Error())
}
