// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage turns stored image file names into URLs a reader can fetch.

Two resolvers are provided:

  - [ObjectResolver]: presigned GET URLs against an S3-compatible bucket (MinIO, R2).
  - [StaticResolver]: unsigned URLs under a public CDN prefix.

Chapter versions store bare file names only; URLs are produced per read and
never persisted.
*/
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageResolver produces a fetchable URL for a stored file name.
type ImageResolver interface {
	GetURL(ctx context.Context, fileName string, expiry time.Duration) (string, error)
}

// # Object Storage

// ObjectConfig holds the S3-compatible endpoint settings.
type ObjectConfig struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// ObjectResolver signs GET URLs for objects in one bucket.
type ObjectResolver struct {
	client *minio.Client
	bucket string
}

/*
NewObjectResolver connects to the object store and checks that the bucket exists.

Parameters:
  - ctx: Bounds the startup bucket check
  - cfg: ObjectConfig
  - logger: *slog.Logger

Returns:
  - *ObjectResolver: Ready to sign URLs
  - error: Bad endpoint, unreachable server or missing bucket
*/
func NewObjectResolver(ctx context.Context, cfg ObjectConfig, logger *slog.Logger) (*ObjectResolver, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to initialise object client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to reach object store: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("storage: bucket %q does not exist", cfg.Bucket)
	}

	logger.Info("object storage connected",
		slog.String("endpoint", endpoint),
		slog.String("bucket", cfg.Bucket),
	)

	return &ObjectResolver{client: client, bucket: cfg.Bucket}, nil
}

// GetURL presigns a GET request valid for expiry.
func (resolver *ObjectResolver) GetURL(ctx context.Context, fileName string, expiry time.Duration) (string, error) {
	presigned, err := resolver.client.PresignedGetObject(ctx, resolver.bucket, fileName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("storage: failed to presign %s: %w", fileName, err)
	}
	return presigned.String(), nil
}

// # Static CDN

// StaticResolver joins file names onto a public base URL. Expiry is ignored.
type StaticResolver struct {
	baseURL string
}

// NewStaticResolver constructs a [StaticResolver] for baseURL.
func NewStaticResolver(baseURL string) *StaticResolver {
	return &StaticResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// GetURL returns baseURL/fileName with the name path-escaped.
func (resolver *StaticResolver) GetURL(_ context.Context, fileName string, _ time.Duration) (string, error) {
	segments := strings.Split(strings.TrimLeft(fileName, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return resolver.baseURL + "/" + strings.Join(segments, "/"), nil
}
