package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateStore_WithoutRedisRejectsEverything(t *testing.T) {
	store := NewStateStore(nil)
	ctx := context.Background()

	state, err := store.NewState(ctx)
	require.NoError(t, err)
	assert.Len(t, state, 36)

	ok, err := store.ConsumeState(ctx, state)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStateStore_EmptyState(t *testing.T) {
	ok, err := NewStateStore(nil).ConsumeState(context.Background(), "")
	assert.NoError(t, err)
	assert.False(t, ok)
}
