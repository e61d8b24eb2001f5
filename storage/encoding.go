package storage

import (
	"errors"
	"time"
)

// Backends without native metadata or expiration support (Bolt, disk) frame
// records as a flat byte sequence: expiry unix seconds, metadata pair count,
// then 16-bit length-prefixed strings for each key and value, then the raw
// value bytes to the end.

var (
	// ErrBadRecord is returned when a stored record cannot be decoded,
	// e.g. because the entry was written by something else.
	ErrBadRecord = errors.New("bad record")
)

func encodeRecord(rec Record, expiry time.Time) []byte {
	n := 8 + 2
	for k, v := range rec.Meta {
		n += 4 + len(k) + len(v)
	}
	n += len(rec.Value)
	b := make([]byte, n)
	rest := put64(b, uint64(expiry.Unix()))
	rest = put16(rest, uint16(len(rec.Meta)))
	for k, v := range rec.Meta {
		rest = puts(rest, k)
		rest = puts(rest, v)
	}
	copy(rest, rec.Value)
	return b
}

func decodeRecord(b []byte) (rec Record, expiry time.Time, err error) {
	if len(b) < 10 {
		return rec, expiry, ErrBadRecord
	}
	seconds, rest := get64(b)
	expiry = time.Unix(int64(seconds), 0)
	count, rest := get16(rest)
	if count > 0 {
		rec.Meta = make(map[string]string, count)
	}
	for i := uint16(0); i < count; i++ {
		var k, v string
		if k, rest, err = gets(rest); err != nil {
			return rec, expiry, err
		}
		if v, rest, err = gets(rest); err != nil {
			return rec, expiry, err
		}
		rec.Meta[k] = v
	}
	rec.Value = dup(rest)
	return rec, expiry, nil
}

func put16(b []byte, v uint16) []byte {
	b[0] = uint8(v)
	b[1] = uint8(v >> 8)
	return b[2:]
}

func put64(b []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		b[i] = uint8(v >> (8 * i))
	}
	return b[8:]
}

func puts(b []byte, v string) []byte {
	b = put16(b, uint16(len(v)))
	copy(b, v)
	return b[len(v):]
}

func get16(b []byte) (uint16, []byte) {
	v := uint16(b[0])
	v += uint16(b[1]) << 8
	return v, b[2:]
}

func get64(b []byte) (uint64, []byte) {
	var v uint64
	for i := 0; i < 8; i++ {
		v += uint64(b[i]) << (8 * i)
	}
	return v, b[8:]
}

func gets(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, ErrBadRecord
	}
	n, rest := get16(b)
	if len(rest) < int(n) {
		return "", nil, ErrBadRecord
	}
	return string(rest[:n]), rest[n:], nil
}
