// Package s3 loads documents from S3 objects, either one object by key
// or everything under a prefix. It works against AWS and S3-compatible
// stores such as MinIO via a custom endpoint.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Jflick58/langchain/pkg/schema"
)

// Config controls how NewClient assembles the S3 client. Zero values
// defer to the default AWS credential and region chain.
type Config struct {
	Region      string
	AccessKeyID string
	SecretKey   string

	// Endpoint points at an S3-compatible server; setting it switches
	// the client to path-style addressing.
	Endpoint string
}

// NewClient builds an S3 client from the default AWS config chain,
// applying static credentials and a custom endpoint when configured.
func NewClient(ctx context.Context, cfg Config) (*awss3.Client, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	clientOpts := []func(*awss3.Options){}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return awss3.NewFromConfig(awsCfg, clientOpts...), nil
}

// Loader reads objects from one bucket.
type Loader struct {
	client *awss3.Client
	bucket string
	key    string
	prefix string
}

// Option configures the loader.
type Option func(*Loader)

// WithKey loads a single object.
func WithKey(key string) Option {
	return func(l *Loader) { l.key = key }
}

// WithPrefix loads every object under the prefix.
func WithPrefix(prefix string) Option {
	return func(l *Loader) { l.prefix = prefix }
}

// New builds a loader for the bucket. Exactly one of WithKey or
// WithPrefix selects what to load.
func New(client *awss3.Client, bucket string, opts ...Option) (*Loader, error) {
	if client == nil {
		return nil, errors.New("s3: client is required")
	}
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	l := &Loader{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(l)
	}
	if (l.key == "") == (l.prefix == "") {
		return nil, errors.New("s3: exactly one of WithKey or WithPrefix is required")
	}
	return l, nil
}

// Load fetches the selected objects. Each object becomes one document
// with its s3:// URL recorded under the "source" metadata key.
func (l *Loader) Load(ctx context.Context) ([]schema.Document, error) {
	if l.key != "" {
		doc, err := l.loadObject(ctx, l.key)
		if err != nil {
			return nil, err
		}
		return []schema.Document{doc}, nil
	}

	var docs []schema.Document
	var continuation *string
	for {
		page, err := l.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(l.prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: list %q: %w", l.prefix, err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			doc, err := l.loadObject(ctx, key)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}

		if page.NextContinuationToken == nil {
			break
		}
		continuation = page.NextContinuationToken
	}
	return docs, nil
}

func (l *Loader) loadObject(ctx context.Context, key string) (schema.Document, error) {
	out, err := l.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return schema.Document{}, fmt.Errorf("s3: get object %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return schema.Document{}, fmt.Errorf("s3: read object %q: %w", key, err)
	}

	return schema.Document{
		PageContent: string(data),
		Metadata:    map[string]any{"source": fmt.Sprintf("s3://%s/%s", l.bucket, key)},
	}, nil
}
