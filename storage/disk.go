package storage

import (
	"crypto/sha512"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"
)

// DiskBackend implements Backend on a host filesystem directory. Each record
// is framed with its expiry deadline; expired files are removed by the Get
// that finds them.
type DiskBackend struct {
	dir string
}

func NewDiskBackend(dir string) *DiskBackend {
	return &DiskBackend{dir: dir}
}

func (s *DiskBackend) Put(key string, rec Record, ttl time.Duration) (err error) {
	valpath := s.pathFor(key)
	value := encodeRecord(rec, time.Now().Add(ttl))
	err = ioutil.WriteFile(valpath, value, 0600)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("could not write %q: %w", valpath, err)
	}
	if err = os.MkdirAll(filepath.Dir(valpath), 0700); err != nil {
		return fmt.Errorf("could not make dir for %q: %w", valpath, err)
	}
	return ioutil.WriteFile(valpath, value, 0600)
}

func (s *DiskBackend) Get(key string) (Record, error) {
	valpath := s.pathFor(key)
	value, err := ioutil.ReadFile(valpath)
	if os.IsNotExist(err) {
		return Record{}, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if err != nil {
		return Record{}, err
	}
	rec, expiry, err := decodeRecord(value)
	if err != nil {
		return Record{}, fmt.Errorf("%q: %w", key, err)
	}
	if !expiry.After(time.Now()) {
		if err := os.Remove(valpath); err != nil && !os.IsNotExist(err) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	return rec, nil
}

func (s *DiskBackend) pathFor(key string) string {
	b := []byte(key)
	// Prevent ENAMETOOLONG, while retaining low probability of clashes.
	if len(b) > sha512.Size {
		hash := sha512.Sum512(b)
		b = hash[:]
	}
	hex := fmt.Sprintf("%02x", b)
	return filepath.Join(s.dir, hex[:2], hex)
}
