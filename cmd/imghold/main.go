package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/boltdb/bolt"
	"github.com/google/gops/agent"
	log "github.com/sirupsen/logrus"

	"imghold/blob"
	"imghold/storage"
)

func main() {
	defaultConfigFile := os.ExpandEnv("$HOME/lib/imghold/imghold.config")
	configFile := flag.String("config", defaultConfigFile, "location of configuration file")
	flag.Parse()

	opts, err := loadConfig(*configFile)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"path": *configFile,
		}).Fatal("Could not load configuration")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if err := agent.Listen(agent.Options{
		ShutdownCleanup: true,
	}); err != nil {
		log.WithField("err", err).Warn("Could not start gops agent")
	} else {
		defer agent.Close()
	}

	backend, err := newBackend(opts)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"type": opts.Backend.Type,
		}).Fatal("Could not set up backend")
	}
	if opts.Backend.Cache {
		backend = storage.NewPaired(storage.NewInMemoryBackend(), backend)
	}

	var storeOpts []blob.Option
	if opts.MaxBytes > 0 {
		storeOpts = append(storeOpts, blob.WithMaxBytes(opts.MaxBytes))
	}
	if opts.TTLSeconds > 0 {
		storeOpts = append(storeOpts, blob.WithTTL(opts.ttl()))
	}
	store := blob.New(backend, storeOpts...)

	log.WithFields(log.Fields{
		"backend": opts.Backend.Type,
		"listen":  opts.Listen,
	}).Info("Serving blobs")
	if err := http.ListenAndServe(opts.Listen, newHandler(store)); err != nil {
		log.WithField("err", err).Fatal("Could not listen and serve")
	}
}

func newBackend(opts *config) (storage.Backend, error) {
	switch opts.Backend.Type {
	case "memory":
		return storage.NewInMemoryBackend(), nil
	case "disk":
		dir := os.ExpandEnv(opts.Backend.Dir)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
		return storage.NewDiskBackend(dir), nil
	case "bolt":
		db, err := bolt.Open(os.ExpandEnv(opts.Backend.Path), 0600, nil)
		if err != nil {
			return nil, err
		}
		return storage.NewBoltBackend(db)
	case "s3":
		return storage.NewS3Backend(opts.Backend.Profile, opts.Backend.Region, opts.Backend.Bucket), nil
	case "dynamodb":
		return storage.NewDynamoDBBackend(opts.Backend.Profile, opts.Backend.Region, opts.Backend.Table)
	default:
		return nil, fmt.Errorf("unknown backend type %q", opts.Backend.Type)
	}
}
