package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3API is the slice of the S3 client the store uses. Tests fake it.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes each batch as a single newline-delimited object under a
// time-partitioned key.
type S3Store struct {
	client s3API
	bucket string
	prefix string

	now func() time.Time
}

// NewS3Store builds a store writing to bucket under prefix.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return newS3Store(client, bucket, prefix)
}

func newS3Store(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// WriteBatch joins the records with newlines and uploads them as one object.
func (s *S3Store) WriteBatch(ctx context.Context, records [][]byte) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, rec := range records {
		buf.Write(rec)
		buf.WriteByte('\n')
	}

	key := s.objectKey(s.now().UTC())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String("application/x-ndjson"),
		ContentLength: aws.Int64(int64(buf.Len())),
	})
	if err != nil {
		return fmt.Errorf("put batch object %s: %w", key, err)
	}
	return nil
}

// objectKey partitions objects by hour so downstream consumers can prune by
// time range.
func (s *S3Store) objectKey(t time.Time) string {
	name := fmt.Sprintf("%s/events-%s.ndjson", t.Format("2006/01/02/15"), uuid.New().String())
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
