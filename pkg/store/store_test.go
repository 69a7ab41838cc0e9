package store

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestIDForSum(t *testing.T) {
	idA := IDForSum(sha256.Sum256([]byte("hello")))
	idB := IDForSum(sha256.Sum256([]byte("hello")))
	idC := IDForSum(sha256.Sum256([]byte("world")))

	assert.Equal(t, idA, idB, "identical content must produce identical ids")
	assert.NotEqual(t, idA, idC)
	assert.Len(t, idA, 8, "5 bytes cford32-encoded is 8 lowercase characters")
}

func newBoltStorage(t *testing.T, bucket string) *BoltStorage {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "store.bolt"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	s, err := NewBoltStorage(db, bucket)
	require.NoError(t, err)
	return s
}

func TestBoltStorage_PutGetDel(t *testing.T) {
	ctx := context.Background()
	s := newBoltStorage(t, "objects")

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "id1", []byte("hello")))
	got, err := s.Get(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	require.NoError(t, s.Del(ctx, "id1"))
	_, err = s.Get(ctx, "id1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltStorage_List(t *testing.T) {
	ctx := context.Background()
	s := newBoltStorage(t, "objects")
	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "b", []byte("2")))

	seen := map[string]string{}
	err := s.List(ctx, func(id string, b []byte) error {
		seen[id] = string(b)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, seen)
}

func TestCachingStorage_CoalescesAndCaches(t *testing.T) {
	ctx := context.Background()
	cache := newBoltStorage(t, "cache")
	permanent := newBoltStorage(t, "permanent")
	require.NoError(t, permanent.Put(ctx, "id1", []byte("from-permanent")))

	cs, err := NewCachingStorage(cache, permanent, 1<<20)
	require.NoError(t, err)

	got, err := cs.Get(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-permanent"), got)

	// The first read should have copied the object into the cache bucket.
	cached, err := cache.Get(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-permanent"), cached)

	_, err = cs.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachingStorage_PutDel(t *testing.T) {
	ctx := context.Background()
	cache := newBoltStorage(t, "cache")
	permanent := newBoltStorage(t, "permanent")

	cs, err := NewCachingStorage(cache, permanent, 1<<20)
	require.NoError(t, err)

	require.NoError(t, cs.Put(ctx, "id1", []byte("data")))
	got, err := cs.Get(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	require.NoError(t, cs.Del(ctx, "id1"))
	_, err = cs.Get(ctx, "id1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachingStorage_WarmsFromExistingCache(t *testing.T) {
	ctx := context.Background()
	cache := newBoltStorage(t, "cache")
	permanent := newBoltStorage(t, "permanent")
	require.NoError(t, cache.Put(ctx, "warm", []byte("precached")))

	cs, err := NewCachingStorage(cache, permanent, 1<<20)
	require.NoError(t, err)

	require.True(t, cs.cacheHas("warm"))
	got, err := cs.Get(ctx, "warm")
	require.NoError(t, err)
	assert.Equal(t, []byte("precached"), got)
}

func TestCachingStorage_Eviction(t *testing.T) {
	ctx := context.Background()
	cache := newBoltStorage(t, "cache")
	permanent := newBoltStorage(t, "permanent")
	require.NoError(t, permanent.Put(ctx, "old", []byte("aaaaaaaaaa")))
	require.NoError(t, permanent.Put(ctx, "new", []byte("bbbbbbbbbb")))

	cs, err := NewCachingStorage(cache, permanent, 12)
	require.NoError(t, err)

	_, err = cs.Get(ctx, "old")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = cs.Get(ctx, "new")
	require.NoError(t, err)

	cs.doClean()
	assert.LessOrEqual(t, cs.cacheSize(), uint64(12))
}
