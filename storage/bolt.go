package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

// BoltBackend is an implementation of Backend whose backend is a Bolt
// database. Expiration is lazy: entries past their deadline are treated as
// absent and removed on the Get that finds them.
type BoltBackend bolt.DB

var (
	bucketName = []byte("blobs")
)

func NewBoltBackend(db *bolt.DB) (*BoltBackend, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return fmt.Errorf("could not ensure bucket %q exists: %w", bucketName, err)
		}
		return nil
	})
	return (*BoltBackend)(db), err
}

func (s *BoltBackend) Put(key string, rec Record, ttl time.Duration) error {
	value := encodeRecord(rec, time.Now().Add(ttl))
	return (*bolt.DB)(s).Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketName).Put([]byte(key), value); err != nil {
			return fmt.Errorf("could not put %.40q: %w", key, err)
		}
		return nil
	})
}

func (s *BoltBackend) Get(key string) (rec Record, err error) {
	var expired bool
	err = (*bolt.DB)(s).View(func(tx *bolt.Tx) error {
		value := tx.Bucket(bucketName).Get([]byte(key))
		if value == nil {
			return fmt.Errorf("%.40q: %w", key, ErrNotFound)
		}
		var expiry time.Time
		rec, expiry, err = decodeRecord(value)
		if err != nil {
			return fmt.Errorf("%.40q: %w", key, err)
		}
		expired = !expiry.After(time.Now())
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	if expired {
		if derr := s.delete(key); derr != nil && !errors.Is(derr, ErrNotFound) {
			return Record{}, derr
		}
		return Record{}, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	return rec, nil
}

func (s *BoltBackend) delete(key string) error {
	return (*bolt.DB)(s).Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}
