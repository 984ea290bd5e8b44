package main

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/persistence/middleware"
)

func TestRecoveryMiddlewares(t *testing.T) {
	mws, err := recoveryMiddlewares("", nil)
	require.NoError(t, err)
	assert.Empty(t, mws)

	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	mws, err = recoveryMiddlewares(key, []string{"password"})
	require.NoError(t, err)
	require.Len(t, mws, 2)

	underlying := memory.NewCache()
	cache := middleware.Chain(underlying, mws...)
	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "name", domain.Snapshot{
		Field: domain.Field{Name: "name", Value: "ada", HasValue: true},
	}))

	parked, err := underlying.Take(ctx, "name")
	require.NoError(t, err)
	assert.NotEqual(t, "ada", parked.Field.Value)

	_, err = recoveryMiddlewares("not base64!", nil)
	assert.Error(t, err)
	_, err = recoveryMiddlewares(base64.StdEncoding.EncodeToString([]byte("short")), nil)
	assert.ErrorIs(t, err, middleware.ErrKeySize)
	_, err = recoveryMiddlewares("", []string{"("})
	assert.Error(t, err)
}
