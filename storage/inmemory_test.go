package storage

import (
	"errors"
	"testing"
	"time"
)

func TestInMemoryBackendExpiry(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	backend := NewInMemoryBackend()
	backend.now = func() time.Time { return now }
	rec := Record{Value: []byte("cat"), Meta: map[string]string{"mime": "image/jpeg"}}
	if err := backend.Put("k", rec, 7*24*time.Hour); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	advance := func(d time.Duration) { now = now.Add(d) }

	t.Run("live until the deadline", func(t *testing.T) {
		advance(7*24*time.Hour - time.Second)
		stored, err := backend.Get("k")
		if err != nil {
			t.Fatalf("got %v, want nil", err)
		}
		if string(stored.Value) != "cat" {
			t.Errorf("got %q, want %q", stored.Value, "cat")
		}
	})
	t.Run("absent at the deadline", func(t *testing.T) {
		advance(time.Second)
		_, err := backend.Get("k")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want %v", err, ErrNotFound)
		}
	})
	t.Run("stays absent", func(t *testing.T) {
		_, err := backend.Get("k")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want %v", err, ErrNotFound)
		}
	})
}
