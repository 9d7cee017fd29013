package container

import (
	"testing"

	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestModule_GraphIsComplete(t *testing.T) {
	err := fx.ValidateApp(Module, fx.Supply(ConfigPath("")))
	require.NoError(t, err)
}

func TestNewArchiveStore_DisabledWithoutBucket(t *testing.T) {
	store, err := NewArchiveStore(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestNewCache_FallsBackToMemory(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cache := NewCache(lc, &config.Config{}, nil, zap.NewNop())
	require.NotNil(t, cache)

	lc.RequireStart()
	lc.RequireStop()
}

func TestNewRedisClient_Disabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	client, err := NewRedisClient(lc, &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, client)
}
