// Package source opens annotation inputs from local paths or S3-compatible
// object storage, decompressing gzip inputs on the fly.
package source

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrInvalidURI is returned for s3:// URIs without a bucket or key.
var ErrInvalidURI = errors.New("invalid source uri")

// S3Config configures access to S3 or an S3-compatible endpoint such as MinIO.
type S3Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// Environment variables read by S3ConfigFromEnv:
//   ASSOCKIT_S3_REGION=<region> (default us-east-1)
//   ASSOCKIT_S3_ENDPOINT=<url> (optional, for MinIO)
//   ASSOCKIT_S3_PATH_STYLE=true|false (default false)
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// S3ConfigFromEnv reads the S3 settings from the process environment.
func S3ConfigFromEnv() S3Config {
	return S3Config{
		Region:    os.Getenv("ASSOCKIT_S3_REGION"),
		Endpoint:  os.Getenv("ASSOCKIT_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("ASSOCKIT_S3_PATH_STYLE"), "true"),
	}
}

// Opener resolves source URIs. The S3 client is built on first use; an
// Opener may be shared by goroutines.
type Opener struct {
	s3Config S3Config

	mu       sync.Mutex
	s3Client *s3.Client
}

// NewOpener creates an opener with the given S3 settings.
func NewOpener(s3Config S3Config) *Opener {
	return &Opener{s3Config: s3Config}
}

// NewOpenerWithClient creates an opener that uses an existing S3 client.
func NewOpenerWithClient(client *s3.Client) *Opener {
	return &Opener{s3Client: client}
}

// Open opens a source using settings from the environment.
func Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	return NewOpener(S3ConfigFromEnv()).Open(ctx, uri)
}

// Open returns a reader for a local path or an s3://bucket/key URI. Inputs
// whose name ends in .gz are decompressed. Closing the reader releases every
// underlying handle.
func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if strings.HasPrefix(uri, "s3://") {
		bucket, key, err := ParseS3URI(uri)
		if err != nil {
			return nil, err
		}
		raw, err = o.openS3(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
	} else {
		file, err := os.Open(strings.TrimPrefix(uri, "file://"))
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", uri, err)
		}
		raw = file
	}

	if !strings.HasSuffix(uri, ".gz") {
		return raw, nil
	}
	decompressed, err := gzip.NewReader(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("decompressing %s: %w", uri, err)
	}
	return &stackedReadCloser{Reader: decompressed, closers: []io.Closer{decompressed, raw}}, nil
}

func (o *Opener) openS3(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	client, err := o.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

func (o *Opener) client(ctx context.Context) (*s3.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.s3Client != nil {
		return o.s3Client, nil
	}
	region := o.s3Config.Region
	if region == "" {
		region = "us-east-1"
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	o.s3Client = s3.NewFromConfig(awsConfig, func(options *s3.Options) {
		options.UsePathStyle = o.s3Config.PathStyle
		if o.s3Config.Endpoint != "" {
			options.BaseEndpoint = aws.String(o.s3Config.Endpoint)
		}
	})
	return o.s3Client, nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if parsed.Scheme != "s3" || parsed.Host == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket", ErrInvalidURI, uri)
	}
	key = strings.TrimPrefix(parsed.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("%w: %q has no key", ErrInvalidURI, uri)
	}
	return parsed.Host, key, nil
}

// stackedReadCloser closes its closers in order.
type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReadCloser) Close() error {
	var errs []error
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
