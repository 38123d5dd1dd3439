package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_GetSet(t *testing.T) {
	ctx := context.Background()
	r := NewRepo()

	_, ok, err := r.Get(ctx, "students")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "students", "[]"))
	v, ok, err := r.Get(ctx, "students")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

func TestRepo_FailSet(t *testing.T) {
	ctx := context.Background()
	r := NewRepo()
	require.NoError(t, r.Set(ctx, "students", "[]"))

	boom := errors.New("disk full")
	r.FailSet = boom
	assert.Equal(t, boom, r.Set(ctx, "students", `[{"name":"Ana"}]`))

	v, _, _ := r.Get(ctx, "students")
	assert.Equal(t, "[]", v)
}

func TestRepo_DisconnectClears(t *testing.T) {
	ctx := context.Background()
	r := NewRepo()
	require.NoError(t, r.Set(ctx, "students", "[]"))
	r.Disconnect()

	_, ok, err := r.Get(ctx, "students")
	require.NoError(t, err)
	assert.False(t, ok)
}
