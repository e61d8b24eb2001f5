package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"golang.org/x/time/rate"
)

// DynamoDBBackend is an implementation of Backend backed by a DynamoDB
// table. The expiry deadline is stored in the "exp" attribute, which should
// be configured as the table's TTL attribute so DynamoDB removes expired
// items on its own. Since that removal can lag by days, Get also filters on
// "exp" so expired items read as absent immediately.
type DynamoDBBackend struct {
	profile string
	region  string
	table   string

	// Do throttling on our side based on configured RCUs/WCUs so the
	// client doesn't have to retry.
	getLimiter *rate.Limiter
	putLimiter *rate.Limiter

	ddb *dynamodb.DynamoDB
}

func NewDynamoDBBackend(profile, region, table string) (*DynamoDBBackend, error) {
	s := &DynamoDBBackend{
		profile: profile,
		region:  region,
		table:   table,
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(s.region),
		Credentials: credentials.NewSharedCredentials("", s.profile),
	})
	if err != nil {
		return nil, err
	}
	s.ddb = dynamodb.New(sess)
	if err := s.configureLimiters(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DynamoDBBackend) configureLimiters() error {
	result, err := s.ddb.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return err
	}
	// Assume our items are around 1 kB, so that RCUs/WCUs translate to
	// get/put requests per second. Blobs can of course be larger, which
	// makes this throttling optimistic, not exact.
	rcus := *result.Table.ProvisionedThroughput.ReadCapacityUnits
	wcus := *result.Table.ProvisionedThroughput.WriteCapacityUnits
	s.getLimiter = rate.NewLimiter(rate.Every(time.Duration(1_000_000/rcus)*time.Microsecond), 1)
	s.putLimiter = rate.NewLimiter(rate.Every(time.Duration(1_000_000/wcus)*time.Microsecond), 1)
	return nil
}

func (s *DynamoDBBackend) Put(key string, rec Record, ttl time.Duration) (err error) {
	expiry := time.Now().Add(ttl).Unix()
	var input dynamodb.PutItemInput
	input.TableName = &s.table
	input.Item = map[string]*dynamodb.AttributeValue{
		"k":   {S: aws.String(key)},
		"va":  {B: dup(rec.Value)},
		"exp": ddbNumber(expiry),
	}
	if len(rec.Meta) > 0 {
		meta := make(map[string]*dynamodb.AttributeValue, len(rec.Meta))
		for mk, mv := range rec.Meta {
			meta[mk] = &dynamodb.AttributeValue{S: aws.String(mv)}
		}
		input.Item["mt"] = &dynamodb.AttributeValue{M: meta}
	}
	time.Sleep(s.putLimiter.Reserve().Delay())
	_, err = s.ddb.PutItem(&input)
	return err
}

func (s *DynamoDBBackend) Get(key string) (Record, error) {
	var input dynamodb.GetItemInput
	input.TableName = &s.table
	input.Key = map[string]*dynamodb.AttributeValue{
		"k": {S: aws.String(key)},
	}
	time.Sleep(s.getLimiter.Reserve().Delay())
	output, err := s.ddb.GetItem(&input)
	if err != nil {
		if e, ok := err.(awserr.Error); ok {
			if e.Code() == dynamodb.ErrCodeResourceNotFoundException {
				return Record{}, fmt.Errorf("%v: %w", e, ErrNotFound)
			}
		}
		return Record{}, err
	}
	if output.Item == nil {
		return Record{}, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	if expAttr := output.Item["exp"]; expAttr != nil && expAttr.N != nil {
		// Trusting this to be a number.
		seconds, _ := strconv.ParseInt(*expAttr.N, 10, 64)
		if !time.Unix(seconds, 0).After(time.Now()) {
			return Record{}, fmt.Errorf("%.40q: %w", key, ErrNotFound)
		}
	}
	var rec Record
	rec.Value = output.Item["va"].B
	if metaAttr := output.Item["mt"]; metaAttr != nil {
		rec.Meta = make(map[string]string, len(metaAttr.M))
		for mk, mv := range metaAttr.M {
			rec.Meta[mk] = aws.StringValue(mv.S)
		}
	}
	return rec, nil
}

func ddbNumber(n int64) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{
		N: aws.String(strconv.FormatInt(n, 10)),
	}
}
