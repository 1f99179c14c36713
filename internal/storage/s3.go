package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Options configures an S3Store.
type S3Options struct {
	Bucket string
	Region string
	// PublicURL is the prefix objects are served under. Defaults to the
	// virtual-hosted bucket URL.
	PublicURL string
	// Client overrides the SDK client; nil creates one from a default session.
	Client s3iface.S3API
}

// S3Store reads and writes objects in a single bucket.
type S3Store struct {
	client    s3iface.S3API
	bucket    string
	publicURL string
}

// NewS3Store builds an S3-backed store.
func NewS3Store(opts S3Options) (*S3Store, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	client := opts.Client
	if client == nil {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(opts.Region)})
		if err != nil {
			return nil, fmt.Errorf("storage: s3 session: %w", err)
		}
		client = s3.New(sess)
	}
	publicURL := strings.TrimRight(strings.TrimSpace(opts.PublicURL), "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Store{client: client, bucket: bucket, publicURL: publicURL}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// Put uploads data under key and returns its public URL.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(cleanKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", cleanKey, err)
	}
	return s.publicURL + "/" + cleanKey, nil
}

// Get downloads the object at key from bucket, or from the store's bucket
// when bucket is empty. At most limit bytes are read when limit > 0.
func (s *S3Store) Get(ctx context.Context, bucket, key string, limit int64) ([]byte, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(strings.TrimLeft(key, "/")),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: s3 get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return readLimited(out.Body, limit)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("storage: object exceeds %d bytes", limit)
	}
	return data, nil
}
