// Package objectstore mirrors exported files into an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appcfg "github.com/mx-space/scribe/internal/config"
)

const uploadTimeout = 45 * time.Second

// S3Mirror uploads export files under a key prefix.
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Mirror(cfg appcfg.S3RuntimeConfig) (*S3Mirror, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	region := strings.TrimSpace(cfg.Region)
	accessKey := strings.TrimSpace(cfg.AccessKeyID)
	secretKey := strings.TrimSpace(cfg.SecretAccessKey)
	if bucket == "" || region == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("incomplete s3 config: bucket/region/access_key_id/secret_access_key are required")
	}

	opts := s3.Options{
		Region:           region,
		Credentials:      aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		UsePathStyle:     cfg.PathStyleAccess,
		RetryMaxAttempts: 1,
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Host == "" {
			return nil, fmt.Errorf("invalid s3 endpoint: %s", endpoint)
		}
		opts.BaseEndpoint = aws.String(strings.TrimSuffix(endpoint, "/"))
		// Custom endpoints (MinIO, R2 and friends) rarely support virtual-host addressing.
		opts.UsePathStyle = true
	}

	return &S3Mirror{
		client: s3.New(opts),
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
	}, nil
}

// Key returns the object key a file name is stored under.
func (m *S3Mirror) Key(name string) string {
	name = strings.TrimLeft(path.Clean("/"+strings.TrimSpace(name)), "/")
	if m.prefix == "" {
		return name
	}
	return m.prefix + "/" + name
}

func (m *S3Mirror) Upload(ctx context.Context, name string, body []byte, contentType string) error {
	key := m.Key(name)
	if key == "" || strings.HasSuffix(key, "/") {
		return fmt.Errorf("invalid s3 object key %q", name)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}
