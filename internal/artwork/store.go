// Package artwork decides where generated character images live.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/oops"

	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/pkg/keygen"
)

// maxImageBytes caps a downloaded image
const maxImageBytes = 20 << 20

// Store turns a freshly generated image URL into the URL that gets persisted
type Store interface {
	Persist(ctx context.Context, sourceURL string) (string, error)
}

// Passthrough keeps the generator's URL as is
type Passthrough struct{}

// Persist returns sourceURL unchanged
func (Passthrough) Persist(_ context.Context, sourceURL string) (string, error) {
	return sourceURL, nil
}

// New returns an S3Store when mirroring is enabled and Passthrough otherwise
func New(ctx context.Context, cfg config.ArtworkConfig) (Store, error) {
	if !cfg.S3.Enabled {
		return Passthrough{}, nil
	}
	return NewS3Store(ctx, cfg.S3)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store copies generated images into a bucket so links outlive the
// generator's short-lived URLs
type S3Store struct {
	client        objectPutter
	bucket        string
	prefix        string
	publicBaseURL string
	httpClient    *http.Client
	now           func() time.Time
}

// NewS3Store builds an S3 client from static credentials. A custom endpoint
// switches to path-style addressing for MinIO-compatible servers.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, oops.Code("ARTWORK_CONFIG_INVALID").In("artwork").Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, oops.Code("ARTWORK_CONFIG_INVALID").In("artwork").Wrap(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		if cfg.Endpoint != "" {
			publicBase = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "characters"
	}

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        prefix,
		publicBaseURL: strings.TrimRight(publicBase, "/"),
		httpClient:    &http.Client{Timeout: time.Minute},
		now:           time.Now,
	}, nil
}

// Persist downloads sourceURL, uploads it and returns the public URL of the copy
func (s *S3Store) Persist(ctx context.Context, sourceURL string) (string, error) {
	data, contentType, err := s.download(ctx, sourceURL)
	if err != nil {
		return "", oops.Code("ARTWORK_DOWNLOAD_FAILED").In("artwork").With("source", sourceURL).Wrap(err)
	}

	key := keygen.GenerateObjectKey(s.prefix, s.now().UTC(), "png")
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", oops.Code("ARTWORK_UPLOAD_FAILED").In("artwork").With("bucket", s.bucket).With("key", key).Wrap(err)
	}

	return s.publicBaseURL + "/" + key, nil
}

func (s *S3Store) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}
