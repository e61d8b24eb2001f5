package blob

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"imghold/storage"
)

const (
	// DefaultMaxBytes is the largest payload accepted by Put, 5 MiB.
	DefaultMaxBytes = 5 * 1024 * 1024

	// DefaultTTL is how long a stored blob stays retrievable, 7 days.
	DefaultTTL = 7 * 24 * time.Hour

	mimeMetaKey = "mime"
)

var (
	// ErrEmptyPayload is returned by Put for zero-length payloads.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrTooLarge is returned by Put for payloads over the size limit.
	// Nothing is written in that case.
	ErrTooLarge = errors.New("payload too large")

	// ErrEmptyID is returned by Get for an empty identifier, before any
	// backend access.
	ErrEmptyID = errors.New("empty identifier")
)

// IDSource produces identifiers for new blobs. Successive identifiers must
// never repeat; there is no existence check before a write, so uniqueness
// rests entirely on the source.
type IDSource interface {
	Next() (string, error)
}

// UUIDSource is the production IDSource, yielding random (version 4) UUIDs.
type UUIDSource struct{}

func (UUIDSource) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Option func(*options)

type options struct {
	maxBytes int
	ttl      time.Duration
	ids      IDSource
}

// WithMaxBytes overrides the payload size limit.
func WithMaxBytes(value int) Option {
	return func(o *options) {
		o.maxBytes = value
	}
}

// WithTTL overrides how long stored blobs stay retrievable.
func WithTTL(value time.Duration) Option {
	return func(o *options) {
		o.ttl = value
	}
}

// WithIDSource overrides the identifier source, e.g. with a deterministic
// one for tests.
func WithIDSource(value IDSource) Option {
	return func(o *options) {
		o.ids = value
	}
}

// Store writes and reads blobs. It is the only component talking to the
// backend. The MIME type of a blob is sniffed once, at write time, and
// stored as metadata next to the bytes; reads return the recorded type,
// whatever the sniffing rules may have become since.
type Store struct {
	backend storage.Backend
	opts    options
}

func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{backend: backend}
	s.opts.maxBytes = DefaultMaxBytes
	s.opts.ttl = DefaultTTL
	s.opts.ids = UUIDSource{}
	for _, o := range opts {
		o(&s.opts)
	}
	return s
}

// Put stores a payload under a freshly generated identifier and returns the
// identifier. The payload must be non-empty and no larger than the
// configured limit. A backend failure is returned as is, with nothing
// observable left behind.
func (s *Store) Put(payload []byte) (id string, err error) {
	if len(payload) == 0 {
		return "", ErrEmptyPayload
	}
	if len(payload) > s.opts.maxBytes {
		return "", fmt.Errorf("%d bytes over the %d limit: %w", len(payload), s.opts.maxBytes, ErrTooLarge)
	}
	mime := DetectMIME(payload)
	id, err = s.opts.ids.Next()
	if err != nil {
		return "", fmt.Errorf("could not generate identifier: %w", err)
	}
	rec := storage.Record{
		Value: payload,
		Meta:  map[string]string{mimeMetaKey: mime},
	}
	if err := s.backend.Put(id, rec, s.opts.ttl); err != nil {
		return "", fmt.Errorf("could not store %q: %w", id, err)
	}
	return id, nil
}

// Get returns the payload stored under id and the MIME type recorded when
// it was written. Absent and expired identifiers are indistinguishable,
// both yield storage.ErrNotFound. A record without a recorded MIME type is
// served as an octet stream rather than failing.
func (s *Store) Get(id string) (payload []byte, mime string, err error) {
	if id == "" {
		return nil, "", ErrEmptyID
	}
	rec, err := s.backend.Get(id)
	if err != nil {
		return nil, "", err
	}
	mime = rec.Meta[mimeMetaKey]
	if mime == "" {
		mime = MIMEOctetStream
	}
	return rec.Value, mime, nil
}

// TTL reports the configured time-to-live, for callers that derive caching
// headers from it.
func (s *Store) TTL() time.Duration {
	return s.opts.ttl
}
