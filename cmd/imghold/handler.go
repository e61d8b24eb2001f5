package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"imghold/blob"
	"imghold/storage"
)

func newHandler(store *blob.Store) http.Handler {
	maxAge := int(store.TTL().Seconds())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithFields(log.Fields{
			"op":   r.Method,
			"path": r.URL.Path,
		})
		status, contentType, body := func() (int, string, []byte) {
			switch r.Method {
			case http.MethodPost:
				if r.URL.Path != "/" {
					logger.Warn("Bad request")
					return http.StatusBadRequest, "", []byte(fmt.Sprintf("%q: uploads go to the root path", r.URL.Path))
				}
				payload, err := ioutil.ReadAll(r.Body)
				if err != nil {
					logger.WithField("err", err).Error()
					return http.StatusInternalServerError, "", []byte(err.Error())
				}
				id, err := store.Put(payload)
				if errors.Is(err, blob.ErrTooLarge) {
					logger.WithField("err", err).Debug("Rejected")
					return http.StatusRequestEntityTooLarge, "", []byte(err.Error())
				}
				if errors.Is(err, blob.ErrEmptyPayload) {
					logger.WithField("err", err).Debug("Rejected")
					return http.StatusBadRequest, "", []byte(err.Error())
				}
				if err != nil {
					logger.WithField("err", err).Error()
					return http.StatusInternalServerError, "", []byte(err.Error())
				}
				logger.WithField("id", id).Debug("Success")
				return http.StatusOK, "text/plain; charset=utf-8", []byte(id)
			case http.MethodGet:
				id := strings.TrimPrefix(r.URL.Path, "/")
				payload, mime, err := store.Get(id)
				if errors.Is(err, blob.ErrEmptyID) {
					logger.Warn("Bad request")
					return http.StatusBadRequest, "", []byte(err.Error())
				}
				if errors.Is(err, storage.ErrNotFound) {
					logger.WithField("err", err).Debug("Not found")
					return http.StatusNotFound, "", nil
				}
				if err != nil {
					logger.WithField("err", err).Error()
					return http.StatusInternalServerError, "", []byte(fmt.Sprintf("%q: %v", id, err))
				}
				// Blobs never change under an identifier, so tell caches so.
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAge))
				logger.Debug("Success")
				return http.StatusOK, mime, payload
			default:
				logger.Warn("Bad request")
				return http.StatusBadRequest, "", []byte(fmt.Sprintf("%q: invalid method, expecting GET or POST", r.Method))
			}
		}()
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		if body != nil {
			if _, err := w.Write(body); err != nil {
				logger.WithField("err", err).Error("Failed writing response")
			}
		}
	})
}
