package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/parts-ledger/inventory"
	"github.com/warp/parts-ledger/inventory/store"
)

func TestMemory_SaveLoadCopies(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	value := []byte(`[]`)
	require.NoError(t, m.Save(ctx, inventory.Entry{Key: "sales", Value: value}))
	value[0] = 'x'

	got, ok, err := m.Load(ctx, "sales")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[]`, string(got))

	got[0] = 'y'
	again, _, _ := m.Load(ctx, "sales")
	assert.Equal(t, `[]`, string(again))
}

func TestMemory_MissingKey(t *testing.T) {
	_, ok, err := store.NewMemory().Load(context.Background(), "stock")

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_FailSaveWritesNothing(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.FailSave = errors.New("read-only")

	err := m.Save(ctx,
		inventory.Entry{Key: "purchases", Value: []byte(`[]`)},
		inventory.Entry{Key: "stock", Value: []byte(`[]`)},
	)

	assert.Error(t, err)
	assert.Equal(t, 0, m.Keys())
}
