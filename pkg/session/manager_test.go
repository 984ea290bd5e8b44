package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/session"
)

func newForm(ctx context.Context, _ string) (*formwork.Form, error) {
	form, err := formwork.New()
	if err != nil {
		return nil, err
	}
	if _, err := form.RegisterField(ctx, "count", domain.FieldOptions{InitialValue: 0, HasInitialValue: true}); err != nil {
		return nil, err
	}
	return form, nil
}

func TestManager_CreateGetList(t *testing.T) {
	manager := session.NewManager(newForm)
	ctx := context.Background()

	id, form, err := manager.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := manager.Get(id)
	require.NoError(t, err)
	assert.Same(t, form, got)
	assert.Equal(t, []string{id}, manager.List())

	_, err = manager.Get("missing")
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))
}

func TestManager_GetOrCreate_Atomic(t *testing.T) {
	var built atomic.Int32
	manager := session.NewManager(func(ctx context.Context, id string) (*formwork.Form, error) {
		built.Add(1)
		time.Sleep(10 * time.Millisecond)
		return newForm(ctx, id)
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	forms := make([]*formwork.Form, 5)
	for i := range forms {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := manager.GetOrCreate(ctx, "atomic-init")
			assert.NoError(t, err)
			forms[i] = f
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), built.Load())
	for _, f := range forms {
		assert.Same(t, forms[0], f)
	}
}

func TestManager_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	manager := session.NewManager(func(context.Context, string) (*formwork.Form, error) {
		return nil, boom
	})

	_, _, err := manager.Create(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, manager.List())
}

func TestManager_WithLock_Serializes(t *testing.T) {
	manager := session.NewManager(newForm)
	ctx := context.Background()
	id, _, err := manager.Create(ctx)
	require.NoError(t, err)

	// Read-modify-write without locking would lose updates.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(_ context.Context, form *formwork.Form) error {
				n := form.FieldValue("count").(int)
				time.Sleep(time.Millisecond)
				form.SetFieldsValue(map[string]any{"count": n + 1})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	form, err := manager.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 20, form.FieldValue("count"))
}

func TestManager_Delete(t *testing.T) {
	cache := memory.NewCache()
	manager := session.NewManager(func(ctx context.Context, id string) (*formwork.Form, error) {
		form, err := formwork.New(formwork.WithRecoveryCache(cache))
		if err != nil {
			return nil, err
		}
		_, err = form.RegisterField(ctx, "note", domain.FieldOptions{})
		return form, err
	})
	ctx := context.Background()

	id, form, err := manager.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, form.Detach(ctx, "note"))
	require.Equal(t, 1, cache.Len())

	require.NoError(t, manager.Delete(ctx, id))
	assert.Equal(t, 0, cache.Len())

	_, err = manager.Get(id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, manager.Delete(ctx, id), session.ErrSessionNotFound)
}
