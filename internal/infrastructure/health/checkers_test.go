package health_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/kugather/signup-verification/internal/infrastructure/health"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestDBHealthChecker(t *testing.T) {
	ok := health.NewDBHealthChecker(pingFunc(func(context.Context) error { return nil }))
	require.Equal(t, "database", ok.Name())
	require.NoError(t, ok.Check(context.Background()))

	down := health.NewDBHealthChecker(pingFunc(func(context.Context) error { return errors.New("refused") }))
	require.Error(t, down.Check(context.Background()))
}

func TestRedisHealthChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hc := health.NewRedisHealthChecker(client)
	require.Equal(t, "redis", hc.Name())
	require.NoError(t, hc.Check(context.Background()))

	mr.Close()
	require.Error(t, hc.Check(context.Background()))
}
