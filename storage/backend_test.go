package storage_test

import (
	"errors"
	"io/ioutil"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imghold/storage"
)

const testTTL = time.Hour

func TestBackendImplementations(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(*testing.T) (storage.Backend, func())
	}{
		/*
			{
				name: "Backend implementation backed by S3",
				setup: func(t *testing.T) (b storage.Backend, teardown func()) {
					s3 := storage.NewS3Backend("imghold", "eu-west-2", "cocky-kare")
					return s3, func() {}
				},
			},
		*/
		{
			name: "Backend implementation backed by a BoltDB",
			setup: func(t *testing.T) (b storage.Backend, teardown func()) {
				f, err := ioutil.TempFile("", "test-imghold-storage-")
				require.Nil(t, err)
				require.Nil(t, f.Close())
				db, err := bolt.Open(f.Name(), 0600, nil)
				require.Nil(t, err)
				backend, err := storage.NewBoltBackend(db)
				require.Nil(t, err)
				return backend, func() {
					_ = db.Close()
					_ = os.Remove(f.Name())
				}
			},
		},
		{
			name: "Backend implementation backed by a map",
			setup: func(*testing.T) (b storage.Backend, teardown func()) {
				return storage.NewInMemoryBackend(), func() {
					// Nothing to do.
				}
			},
		},
		{
			name: "Backend implementation backed by a host filesystem directory",
			setup: func(t *testing.T) (b storage.Backend, teardown func()) {
				dir, err := ioutil.TempDir("", "test-imghold-storage-")
				require.Nil(t, err)
				return storage.NewDiskBackend(dir), func() {
					_ = os.RemoveAll(dir)
				}
			},
		},
		{
			name: "Paired backend backed by two in-memory backends",
			setup: func(t *testing.T) (b storage.Backend, teardown func()) {
				return storage.NewPaired(
					storage.NewInMemoryBackend(),
					storage.NewInMemoryBackend(),
				), func() {}
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			backend, teardown := tc.setup(t)
			defer teardown()
			testBackend(t, backend)
		})
	}
}

func testBackend(t *testing.T, backend storage.Backend) {
	t.Run("what you put is what you get", func(t *testing.T) {
		key := randomKey()
		rec := storage.Record{
			Value: []byte("hello"),
			Meta:  map[string]string{"mime": "image/png"},
		}
		err := backend.Put(key, rec, testTTL)
		require.Nil(t, err)
		stored, err := backend.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("hello"), stored.Value)
		assert.Equal(t, "image/png", stored.Meta["mime"])
	})
	t.Run("error on not existing key", func(t *testing.T) {
		key := randomKey()
		rec, err := backend.Get(key)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		assert.Nil(t, rec.Value)
	})
	t.Run("record without metadata", func(t *testing.T) {
		key := randomKey()
		err := backend.Put(key, storage.Record{Value: []byte("bare")}, testTTL)
		require.Nil(t, err)
		stored, err := backend.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("bare"), stored.Value)
		assert.Empty(t, stored.Meta)
	})
	t.Run("expired entries read as absent", func(t *testing.T) {
		key := randomKey()
		rec := storage.Record{Value: []byte("gone")}
		require.Nil(t, backend.Put(key, rec, -time.Second))
		_, err := backend.Get(key)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
	t.Run("mutating value should not affect stored records", func(t *testing.T) {
		key := randomKey()
		before := []byte("old value")
		if err := backend.Put(key, storage.Record{Value: before}, testTTL); err != nil {
			t.Fatalf("got %v, want nil", err)
		}
		copy(before, "new")
		after, err := backend.Get(key)
		if err != nil {
			t.Fatalf("got %v, want nil", err)
		}
		if want := "old value"; want != string(after.Value) {
			t.Errorf("got %q, want %q", after.Value, want)
		}
	})
	t.Run("mutating metadata should not affect stored records", func(t *testing.T) {
		key := randomKey()
		meta := map[string]string{"mime": "image/gif"}
		require.Nil(t, backend.Put(key, storage.Record{Value: []byte("x"), Meta: meta}, testTTL))
		meta["mime"] = "image/jpeg"
		stored, err := backend.Get(key)
		require.Nil(t, err)
		assert.Equal(t, "image/gif", stored.Meta["mime"])
	})
}

func randomKey() string {
	b := make([]byte, 16)
	rand.Read(b)
	const hexdigits = "0123456789abcdef"
	key := make([]byte, 32)
	for i, v := range b {
		key[2*i] = hexdigits[v>>4]
		key[2*i+1] = hexdigits[v&0xf]
	}
	return string(key)
}
