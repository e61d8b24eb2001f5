// Package remote implements a client for the imghold HTTP gateway.
package remote

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"

	"imghold/blob"
	"imghold/storage"
)

// Client talks to an imghold gateway. The zero value is not usable; create
// one with New.
type Client struct {
	address string
}

func New(address string) *Client {
	return &Client{address: address}
}

// Put uploads a payload and returns the identifier the gateway assigned to
// it. Rejections for size come back as blob.ErrTooLarge.
func (c *Client) Put(payload []byte) (id string, err error) {
	response, err := http.Post(c.baseURL(), "application/octet-stream", bytes.NewReader(payload))
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return "", err
	}
	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return "", err
	}
	switch response.StatusCode {
	case http.StatusOK:
		return string(body), nil
	case http.StatusRequestEntityTooLarge:
		return "", fmt.Errorf("%s: %w", body, blob.ErrTooLarge)
	default:
		return "", errors.New(string(body))
	}
}

// Get downloads the payload stored under id, along with the content type the
// gateway recorded for it. Unknown and expired identifiers come back as
// storage.ErrNotFound.
func (c *Client) Get(id string) (payload []byte, mime string, err error) {
	response, err := http.Get(c.baseURL() + id)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return nil, "", err
	}
	if response.StatusCode == http.StatusNotFound {
		return nil, "", fmt.Errorf("%q: %w", id, storage.ErrNotFound)
	}
	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, "", err
	}
	if response.StatusCode != http.StatusOK {
		return nil, "", errors.New(string(body))
	}
	return body, response.Header.Get("Content-Type"), nil
}

func (c *Client) baseURL() string {
	return fmt.Sprintf("http://%s/", c.address)
}
