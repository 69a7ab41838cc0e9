// Package store provides the content-addressed object storage layer: a
// permanent backend (bbolt or minio) fronted by an LRU-by-last-access cache.
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/thehowl/cford32"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get when the id has no stored object.
var ErrNotFound = errors.New("store: not found")

// idHashBytes is how many leading bytes of a SHA-256 digest make up a
// diffkit object id. 5 bytes (40 bits) keeps links short enough to type or
// paste in a terminal; catalog.DB.VerifySum exists precisely because that
// truncation makes collisions between unrelated uploads a real, if rare,
// possibility.
const idHashBytes = 5

// IDForSum derives the content-addressed id diffkit stores an upload under
// from its full SHA-256 digest. Two uploads with identical archive bytes
// always produce the same id, which is what lets the upload handler treat a
// repeat submission as a no-op rather than a fresh store.
func IDForSum(sum [sha256.Size]byte) string {
	return cford32.EncodeToStringLower(sum[:idHashBytes])
}

// Storage stores diff objects (the tar.gz archive of an uploaded red/green
// pair) addressed by content-derived id. Objects are expected to be small —
// uploads are capped at 1MB — hence no io.Reader
// support. Storage must not delete objects on its own.
type Storage interface {
	// Get returns ErrNotFound if id is not present.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put overwrites if id already exists.
	Put(ctx context.Context, id string, data []byte) error
	// Del returns nil if id was already absent.
	Del(ctx context.Context, id string) error
}

// ListStorage adds enumeration, used to warm a CachingStorage from its
// on-disk cache bucket at startup.
type ListStorage interface {
	Storage
	// List invokes cb for every stored object. Callers must not retain b
	// past the callback; copy it if needed.
	List(ctx context.Context, cb func(id string, b []byte) error) error
}

// BoltStorage is a Storage backed by a single bbolt bucket. Used both as
// the permanent store for small deployments and as the on-disk cache layer
// behind CachingStorage.
type BoltStorage struct {
	db         *bbolt.DB
	bucketName []byte
}

var _ ListStorage = (*BoltStorage)(nil)

// NewBoltStorage creates a BoltStorage, ensuring bucketName exists.
func NewBoltStorage(db *bbolt.DB, bucketName string) (*BoltStorage, error) {
	b := []byte(bucketName)
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: creating bucket %q: %w", bucketName, err)
	}
	return &BoltStorage{db: db, bucketName: b}, nil
}

func (m *BoltStorage) Get(ctx context.Context, id string) ([]byte, error) {
	var val []byte
	err := m.db.View(func(tx *bbolt.Tx) error {
		bx := tx.Bucket(m.bucketName)
		val = append(val, bx.Get([]byte(id))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		return nil, ErrNotFound
	}
	return val, nil
}

func (m *BoltStorage) Put(ctx context.Context, id string, data []byte) error {
	return m.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).Put([]byte(id), data)
	})
}

func (m *BoltStorage) Del(ctx context.Context, id string) error {
	return m.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(m.bucketName).Delete([]byte(id))
	})
}

func (m *BoltStorage) List(ctx context.Context, cb func(id string, b []byte) error) error {
	return m.db.View(func(tx *bbolt.Tx) error {
		bx := tx.Bucket(m.bucketName)
		return bx.ForEach(func(k, v []byte) error {
			return cb(string(k), v)
		})
	})
}

// MinioStorage is a Storage backed by an S3-compatible bucket, used as the
// permanent store in larger deployments fronted by CachingStorage.
type MinioStorage struct {
	cl         *minio.Client
	bucketName string
}

var _ Storage = (*MinioStorage)(nil)

// NewMinioStorage wraps an already-configured minio client.
func NewMinioStorage(cl *minio.Client, bucketName string) *MinioStorage {
	return &MinioStorage{cl: cl, bucketName: bucketName}
}

func (m *MinioStorage) Get(ctx context.Context, id string) ([]byte, error) {
	obj, err := m.cl.GetObject(ctx, m.bucketName, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *MinioStorage) Put(ctx context.Context, id string, data []byte) error {
	_, err := m.cl.PutObject(ctx, m.bucketName, id,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (m *MinioStorage) Del(ctx context.Context, id string) error {
	return m.cl.RemoveObject(ctx, m.bucketName, id, minio.RemoveObjectOptions{})
}

type cachedObject struct {
	id          string
	size        uint64
	lastAccess  time.Time
	lastAccessM sync.Mutex
	ready       chan struct{}
}

func (c *cachedObject) access() {
	n := time.Now()
	// TryLock lets concurrent readers fast-path past a writer that's
	// mid-update, at the cost of an occasionally-stale lastAccess.
	if c.lastAccessM.TryLock() {
		c.lastAccess = n
		c.lastAccessM.Unlock()
	}
}

// CachingStorage fronts a permanent Storage with a ListStorage cache,
// evicted by least-recently-used once the cache exceeds maxSize. Concurrent
// Get calls for the same uncached id coalesce onto a single permanent-store
// fetch via the per-object ready channel.
type CachingStorage struct {
	cache     ListStorage
	permanent Storage
	maxSize   uint64 // bytes; actual cache size may run slightly over.

	sync.RWMutex
	objects  map[string]*cachedObject
	cleaning chan struct{}
}

// NewCachingStorage creates a CachingStorage, warming its in-memory index
// from whatever cache already holds on disk.
func NewCachingStorage(cache ListStorage, permanent Storage, maxSize uint64) (*CachingStorage, error) {
	objects := make(map[string]*cachedObject)
	ready := make(chan struct{})
	close(ready)
	err := cache.List(context.Background(), func(id string, b []byte) error {
		objects[id] = &cachedObject{
			id:         id,
			size:       uint64(len(b)),
			lastAccess: time.Now(),
			ready:      ready,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c := &CachingStorage{
		cache:     cache,
		permanent: permanent,
		maxSize:   maxSize,
		objects:   objects,
		cleaning:  make(chan struct{}, 1),
	}
	go c.cleaner()
	return c, nil
}

var _ Storage = (*CachingStorage)(nil)

const cleanSleep = time.Second

func (c *CachingStorage) cacheSize() uint64 {
	var sz uint64
	c.RLock()
	for _, obj := range c.objects {
		sz += obj.size
	}
	c.RUnlock()
	return sz
}

func (c *CachingStorage) evict(els []*cachedObject) {
	// Hold the read lock for the whole eviction pass so we never delete an
	// object from the cache that was re-created (and re-indexed) while we
	// were deciding what to evict.
	c.RLock()
	defer c.RUnlock()
	for _, el := range els {
		if _, ok := c.objects[el.id]; ok {
			continue
		}
		if err := c.cache.Del(context.Background(), el.id); err != nil {
			log.Printf("store: error deleting during cache eviction: %v", err)
		}
	}
}

func (c *CachingStorage) doClean() {
	c.Lock()
	defer c.Unlock()

	objects := make([]*cachedObject, 0, len(c.objects))
	var sz uint64
	for _, obj := range c.objects {
		objects = append(objects, obj)
		obj.lastAccessM.Lock()
		sz += obj.size
	}

	slices.SortFunc(objects, func(i, j *cachedObject) int {
		return i.lastAccess.Compare(j.lastAccess)
	})

	// Target 95% of maxSize, to give some leeway until the next doClean.
	collectTarget := (sz - c.maxSize) + c.maxSize/20
	var collected uint64
	var del []*cachedObject

	for i, obj := range objects {
		if collected >= collectTarget {
			if del == nil {
				del = objects[:i]
			}
			obj.lastAccessM.Unlock()
			continue
		}
		collected += obj.size
		delete(c.objects, obj.id)
		obj.lastAccessM.Unlock()
	}
	if del == nil {
		del = objects
	}

	go c.evict(del)
}

func (c *CachingStorage) cleaner() {
	for range c.cleaning {
		if c.cacheSize() >= c.maxSize {
			c.doClean()
		}
		time.Sleep(cleanSleep)
	}
}

func (c *CachingStorage) cacheHas(id string) bool {
	c.RLock()
	obj, ok := c.objects[id]
	c.RUnlock()
	if !ok {
		return false
	}
	<-obj.ready
	if obj.size == 0 {
		return false
	}
	obj.access()
	return true
}

func (c *CachingStorage) cacheStore(ctx context.Context, id string, b []byte, x *cachedObject) {
	if err := c.cache.Put(ctx, id, b); err != nil {
		log.Printf("store: cache failed to Put object %q: %v", id, err)
		return
	}
	x.lastAccess = time.Now()
	x.size = uint64(len(b))

	select {
	case c.cleaning <- struct{}{}:
	default:
	}
}

func (c *CachingStorage) Get(ctx context.Context, id string) ([]byte, error) {
	if c.cacheHas(id) {
		return c.cache.Get(ctx, id)
	}

	co, ours := &cachedObject{id: id, ready: make(chan struct{})}, false
	c.Lock()
	if mapObject, ok := c.objects[id]; ok {
		co = mapObject
	} else {
		c.objects[id] = co
		ours = true
	}
	c.Unlock()

	if !ours {
		<-co.ready
		if co.size > 0 {
			return c.cache.Get(ctx, id)
		}
		return nil, ErrNotFound
	}

	defer close(co.ready)
	b, err := c.permanent.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c.cacheStore(ctx, id, b, co)
	return b, nil
}

func (c *CachingStorage) Put(ctx context.Context, id string, data []byte) error {
	if err := c.permanent.Put(ctx, id, data); err != nil {
		return err
	}

	co := &cachedObject{id: id, ready: make(chan struct{})}
	c.Lock()
	c.objects[id] = co
	c.Unlock()

	defer close(co.ready)
	c.cacheStore(ctx, id, data, co)
	return nil
}

func (c *CachingStorage) Del(ctx context.Context, id string) error {
	if err := c.permanent.Del(ctx, id); err != nil {
		return err
	}

	c.Lock()
	_, existed := c.objects[id]
	delete(c.objects, id)
	c.Unlock()
	if !existed {
		return nil
	}

	if err := c.cache.Del(ctx, id); err != nil {
		log.Printf("store: cache failed to Del object %q: %v", id, err)
	}
	return nil
}
