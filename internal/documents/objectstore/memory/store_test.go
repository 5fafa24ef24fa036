package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propverify/pkg/platform/sentinel"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := New()
	data := []byte("%PDF-1.7 body")

	url, err := store.Put(ctx, "a/b.pdf", bytes.NewReader(data), int64(len(data)), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "mem://a/b.pdf", url)

	got, err := store.Get(ctx, "a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, store.Delete(ctx, "a/b.pdf"))
	_, err = store.Get(ctx, "a/b.pdf")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "a/b.pdf"), sentinel.ErrNotFound)
}

func TestPut_CancelledContextStoresNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := New()

	_, err := store.Put(ctx, "a/b.pdf", bytes.NewReader([]byte("x")), 1, "application/pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Len())
}

func TestPut_ShortBodyRejected(t *testing.T) {
	store := New()
	_, err := store.Put(context.Background(), "a", bytes.NewReader([]byte("abc")), 10, "image/png")
	assert.Error(t, err)
	assert.Zero(t, store.Len())
}
