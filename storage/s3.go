package storage

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
)

// The expiry deadline rides along as object metadata so reads can filter
// entries whose TTL has elapsed. Actual removal of expired objects is left
// to a bucket lifecycle rule.
const s3ExpiryMetaKey = "Imghold-Expiry"

// S3Backend is an implementation of Backend backed by AWS S3. The record's
// metadata map is stored as object metadata.
type S3Backend struct {
	profile string
	region  string
	bucket  string
	client  *s3.S3
}

func NewS3Backend(profile, region, bucket string) Backend {
	return &S3Backend{
		profile: profile,
		region:  region,
		bucket:  bucket,
	}
}

func (s *S3Backend) Put(key string, rec Record, ttl time.Duration) (err error) {
	err = s.ensureClient()
	if err != nil {
		return err
	}
	metadata := make(map[string]*string, len(rec.Meta)+1)
	for k, v := range rec.Meta {
		metadata[k] = aws.String(v)
	}
	expiry := time.Now().Add(ttl).Unix()
	metadata[s3ExpiryMetaKey] = aws.String(strconv.FormatInt(expiry, 10))
	_, err = s.client.PutObject(&s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(rec.Value),
		Metadata: metadata,
	})
	return err
}

func (s *S3Backend) Get(key string) (Record, error) {
	if err := s.ensureClient(); err != nil {
		return Record{}, err
	}
	output, err := s.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if rfErr, ok := err.(awserr.RequestFailure); ok {
			if rfErr.StatusCode() == http.StatusNotFound {
				return Record{}, fmt.Errorf("%q: %w", key, ErrNotFound)
			}
		}
		return Record{}, err
	}
	defer func() {
		if err := output.Body.Close(); err != nil {
			log.WithFields(log.Fields{
				"op":  "get",
				"key": key,
			}).Warning("Could not close response body")
		}
	}()
	var rec Record
	// S3 canonicalizes user metadata keys, so fold them back to lower case.
	for k, v := range output.Metadata {
		if strings.EqualFold(k, s3ExpiryMetaKey) {
			seconds, err := strconv.ParseInt(aws.StringValue(v), 10, 64)
			if err == nil && !time.Unix(seconds, 0).After(time.Now()) {
				return Record{}, fmt.Errorf("%q: %w", key, ErrNotFound)
			}
			continue
		}
		if rec.Meta == nil {
			rec.Meta = make(map[string]string)
		}
		rec.Meta[strings.ToLower(k)] = aws.StringValue(v)
	}
	rec.Value, err = ioutil.ReadAll(output.Body)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *S3Backend) ensureClient() error {
	if s.client != nil {
		return nil
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(s.region),
		Credentials: credentials.NewSharedCredentials("", s.profile),
	})
	if err != nil {
		return err
	}
	client := s3.New(sess)
	s.client = client
	return nil
}
