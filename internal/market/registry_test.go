package market

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supdem/supdem/internal/notify"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(2)

	a, err := r.Register("a", notify.NewQueue(1))
	require.NoError(t, err)
	b, err := r.Register("b", notify.NewQueue(1))
	require.NoError(t, err)
	assert.Equal(t, Handle(0), a)
	assert.Equal(t, Handle(1), b)

	_, err = r.Register("c", notify.NewQueue(1))
	assert.True(t, errors.Is(err, ErrRegistryFull))

	c, err := r.Client(b)
	require.NoError(t, err)
	assert.Equal(t, "b", c.RemoteAddr)
	assert.Equal(t, Point{}, c.Pos, "new clients start at the origin")

	require.NoError(t, r.Move(b, Point{-3, 7}))
	c, _ = r.Client(b)
	assert.Equal(t, Point{-3, 7}, c.Pos)

	require.NoError(t, r.Release(a))
	assert.Equal(t, 1, r.Len())
	_, err = r.Client(a)
	assert.True(t, errors.Is(err, ErrUnknownHandle))
	assert.True(t, errors.Is(r.Release(a), ErrUnknownHandle))

	d, err := r.Register("d", notify.NewQueue(1))
	require.NoError(t, err)
	assert.Equal(t, a, d, "released handles are reused")
}

func TestRegistryUnknownHandle(t *testing.T) {
	r := NewRegistry(1)

	for _, h := range []Handle{NoHandle, 0, 1, 100} {
		_, err := r.Client(h)
		assert.True(t, errors.Is(err, ErrUnknownHandle), "handle %d", h)
		assert.True(t, errors.Is(r.Move(h, Point{}), ErrUnknownHandle), "handle %d", h)
	}
}
