package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	st, err := m.Upload(ctx, Object{Bytes: []byte{1, 2}, ContentType: "image/jpeg"}, "slips/9")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Contains(t, st.Path, ".jpg")

	b, err := m.Open(ctx, st.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	require.NoError(t, m.Delete(ctx, st.Path))
	assert.ErrorIs(t, m.Delete(ctx, st.Path), ErrObjectNotFound)
	assert.Equal(t, 0, m.Len())
}
