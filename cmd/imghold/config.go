package main

import (
	"os"
	"time"

	"github.com/rogpeppe/rjson"
)

type config struct {
	Listen     string `json:"listen"`
	Debug      bool   `json:"debug"`
	MaxBytes   int    `json:"max_bytes"`
	TTLSeconds int    `json:"ttl_seconds"`

	Backend struct {
		Type string `json:"type"`

		// Whether to put an in-memory cache in front of the backend.
		Cache bool `json:"cache"`

		// Properties for "disk" type.
		Dir string `json:"dir"`

		// Properties for "bolt" type.
		Path string `json:"path"`

		// Properties for "s3" and "dynamodb" types.
		Profile string `json:"profile"`
		Region  string `json:"region"`
		Bucket  string `json:"bucket"`
		Table   string `json:"table"`
	} `json:"backend"`
}

func loadConfig(pathname string) (*config, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	var c *config
	err = rjson.NewDecoder(f).Decode(&c)
	if err != nil {
		return nil, err
	}
	c.applyDefaultsForMissingProperties()
	return c, nil
}

func (c *config) applyDefaultsForMissingProperties() {
	if c.Listen == "" {
		c.Listen = "localhost:8385"
	}
	if c.Backend.Type == "" {
		c.Backend.Type = "disk"
	}
	if c.Backend.Dir == "" {
		c.Backend.Dir = "$HOME/lib/imghold/data"
	}
}

func (c *config) ttl() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
