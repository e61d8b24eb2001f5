package storage

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// Paired implements Backend wrapping a pair of backends, one fast, one slow.
// It will handle puts storing data in the fast backend and syncing that to
// the slow backend in the background. It will handle gets from the fast
// backend if possible, otherwise from the slow backend (and in this case
// also propagate the data from the slow to the fast backend, for next time
// that piece of data is requested).
type Paired struct {
	fast Backend
	slow Backend

	wbc chan pairedWrite
}

type pairedWrite struct {
	key      string
	rec      Record
	deadline time.Time
}

func NewPaired(fast, slow Backend) Paired {
	p := Paired{
		fast: fast,
		slow: slow,
		wbc:  make(chan pairedWrite, 42),
	}
	// Exits only when the process is terminated.
	go p.writeback()
	return p
}

func (s Paired) Get(key string) (Record, error) {
	rec, err := s.fast.Get(key)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}
	rec, err = s.slow.Get(key)
	if err != nil {
		return Record{}, err
	}
	logger := log.WithFields(log.Fields{
		"key": key,
	})
	// The original deadline is unknown at this point, so the cached copy
	// gets a short one of its own.
	if ferr := s.fast.Put(key, rec, time.Hour); ferr != nil {
		logger.WithField("err", ferr).Warn("Could not propagate from slow to fast")
	} else {
		logger.Debug("Propagated from slow to fast")
	}
	return rec, nil
}

func (s Paired) Put(key string, rec Record, ttl time.Duration) error {
	if err := s.fast.Put(key, rec, ttl); err != nil {
		return err
	}
	// This can get stuck if it fills up and the remote is not able to
	// fulfill our requests. Also, if we kill the process in the middle of
	// propagation, we'll have missing data on the remote.
	s.wbc <- pairedWrite{key: key, rec: rec, deadline: time.Now().Add(ttl)}
	return nil
}

func (s Paired) writeback() {
	for w := range s.wbc {
		s.writeback1(w)
	}
}

func (s Paired) writeback1(w pairedWrite) {
	logger := log.WithFields(log.Fields{
		"key": w.key,
	})
	for {
		ttl := time.Until(w.deadline)
		if ttl <= 0 {
			logger.Warn("Expired before propagation to slow")
			return
		}
		err := s.slow.Put(w.key, w.rec, ttl)
		if err == nil {
			logger.Debug("Propagated from fast to slow")
			break
		}
		logger.WithFields(log.Fields{
			"err": err,
		}).Warn("Could not propagate from fast to slow")
		// Should randomize.
		time.Sleep(time.Second)
	}
}
