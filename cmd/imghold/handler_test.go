package main

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imghold/blob"
	"imghold/storage"
)

func TestHandler(t *testing.T) {
	store := blob.New(storage.NewInMemoryBackend(), blob.WithMaxBytes(64))
	server := httptest.NewServer(newHandler(store))
	defer server.Close()

	upload := func(t *testing.T, payload []byte) (*http.Response, string) {
		response, err := http.Post(server.URL+"/", "application/octet-stream", bytes.NewReader(payload))
		require.Nil(t, err)
		body, err := ioutil.ReadAll(response.Body)
		require.Nil(t, err)
		require.Nil(t, response.Body.Close())
		return response, string(body)
	}

	t.Run("upload then download", func(t *testing.T) {
		payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
		response, id := upload(t, payload)
		require.Equal(t, http.StatusOK, response.StatusCode)
		require.NotEmpty(t, id)

		response, err := http.Get(server.URL + "/" + id)
		require.Nil(t, err)
		defer func() { _ = response.Body.Close() }()
		body, err := ioutil.ReadAll(response.Body)
		require.Nil(t, err)
		assert.Equal(t, http.StatusOK, response.StatusCode)
		assert.Equal(t, payload, body)
		assert.Equal(t, "image/png", response.Header.Get("Content-Type"))
		cc := response.Header.Get("Cache-Control")
		assert.Contains(t, cc, "max-age=604800")
		assert.Contains(t, cc, "immutable")
	})
	t.Run("declared content type is ignored", func(t *testing.T) {
		response, err := http.Post(server.URL+"/", "image/png", strings.NewReader("not a png at all"))
		require.Nil(t, err)
		id, err := ioutil.ReadAll(response.Body)
		require.Nil(t, err)
		require.Nil(t, response.Body.Close())
		require.Equal(t, http.StatusOK, response.StatusCode)

		response, err = http.Get(server.URL + "/" + string(id))
		require.Nil(t, err)
		defer func() { _ = response.Body.Close() }()
		assert.Equal(t, "application/octet-stream", response.Header.Get("Content-Type"))
	})
	t.Run("payload too large", func(t *testing.T) {
		response, _ := upload(t, bytes.Repeat([]byte{0x42}, 65))
		assert.Equal(t, http.StatusRequestEntityTooLarge, response.StatusCode)
	})
	t.Run("empty payload", func(t *testing.T) {
		response, _ := upload(t, nil)
		assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	})
	t.Run("unknown identifier", func(t *testing.T) {
		response, err := http.Get(server.URL + "/271c9d94-b6a1-4e29-9b0c-a444dbb5b1c7")
		require.Nil(t, err)
		require.Nil(t, response.Body.Close())
		assert.Equal(t, http.StatusNotFound, response.StatusCode)
	})
	t.Run("download with no identifier", func(t *testing.T) {
		response, err := http.Get(server.URL + "/")
		require.Nil(t, err)
		require.Nil(t, response.Body.Close())
		assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	})
	t.Run("upload to a non-root path", func(t *testing.T) {
		response, err := http.Post(server.URL+"/somewhere", "application/octet-stream", strings.NewReader("x"))
		require.Nil(t, err)
		require.Nil(t, response.Body.Close())
		assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	})
	t.Run("invalid method", func(t *testing.T) {
		request, err := http.NewRequest(http.MethodDelete, server.URL+"/whatever", nil)
		require.Nil(t, err)
		response, err := http.DefaultClient.Do(request)
		require.Nil(t, err)
		require.Nil(t, response.Body.Close())
		assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	})
}
