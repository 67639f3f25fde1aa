package redis_test

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/edithx/rewarder/internal/redis"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestManagerDisabledWithoutHost(t *testing.T) {
	t.Parallel()

	manager := redis.NewManager(&config.Redis{}, zaptest.NewLogger(t))
	assert.False(t, manager.Enabled())

	client, err := manager.GetClient(redis.WorkerStatusDBIndex)
	require.NoError(t, err)
	assert.Nil(t, client)

	manager.Close()
}

func TestManagerReusesClients(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	manager := redis.NewManager(&config.Redis{Host: mr.Host(), Port: port}, zaptest.NewLogger(t))
	defer manager.Close()

	first, err := manager.GetClient(redis.WorkerStatusDBIndex)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := manager.GetClient(redis.WorkerStatusDBIndex)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, first.Do(t.Context(), first.B().Set().Key("k").Value("v").Build()).Error())
	mr.Select(redis.WorkerStatusDBIndex)
	mr.CheckGet(t, "k", "v")
}
