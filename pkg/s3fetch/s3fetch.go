// Package s3fetch mirrors raster inputs from an S3 prefix into a local
// directory before extraction. Satellite index composites are commonly
// distributed from S3 buckets; mirroring keeps the extraction loop a
// plain local-file batch.
package s3fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hab-forecasting/lakezonal/pkg/logging"
)

// Client provides S3 operations for mirroring raster files.
type Client struct {
	s3Client *s3.Client
}

// NewClient creates an S3 client using default AWS configuration.
func NewClient(ctx context.Context) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Client{s3Client: s3.NewFromConfig(cfg)}, nil
}

// NewClientWithConfig creates an S3 client with a custom AWS config.
func NewClientWithConfig(cfg aws.Config) *Client {
	return &Client{s3Client: s3.NewFromConfig(cfg)}
}

// ParseURI splits an s3://bucket/prefix URI.
func ParseURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3:// URI: %s", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in URI: %s", uri)
	}
	return bucket, prefix, nil
}

// List returns the object keys under a prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// Mirror downloads every object under the prefix into dir, skipping
// files that already exist locally with a non-zero size. It returns the
// number of objects downloaded.
func (c *Client) Mirror(ctx context.Context, uri, dir string) (int, error) {
	bucket, prefix, err := ParseURI(uri)
	if err != nil {
		return 0, err
	}
	keys, err := c.List(ctx, bucket, prefix)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create mirror dir %s: %w", dir, err)
	}

	log := logging.WithPhase("s3fetch")
	downloaded := 0
	for _, key := range keys {
		name := path.Base(key)
		if name == "" || strings.HasSuffix(key, "/") {
			continue
		}
		dest := filepath.Join(dir, name)
		if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
			continue
		}
		start := time.Now()
		n, err := c.download(ctx, bucket, key, dest)
		if err != nil {
			return downloaded, err
		}
		downloaded++
		log.Info().
			Str("key", key).
			Int64("bytes", n).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("object mirrored")
	}
	return downloaded, nil
}

// download streams one object to a temp file and renames it into place,
// so an interrupted run never leaves a truncated raster behind.
func (c *Client) download(ctx context.Context, bucket, key, dest string) (int64, error) {
	resp, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".s3fetch-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("finalize %s: %w", dest, err)
	}
	return n, nil
}
