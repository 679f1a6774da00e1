// Package exports uploads scrape config files to an S3-compatible bucket
// (AWS S3, Cloudflare R2, MinIO).
package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrNotConfigured = errors.New("export bucket is not configured")

type Settings struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// New builds an uploader. Static credentials are used when both keys are
// set, otherwise the default AWS credential chain applies.
func New(ctx context.Context, settings Settings) (*Uploader, error) {
	if strings.TrimSpace(settings.Bucket) == "" {
		return nil, ErrNotConfigured
	}
	region := settings.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if settings.AccessKeyID != "" && settings.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			settings.AccessKeyID, settings.SecretAccessKey, "",
		)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load export bucket config: %w", err)
	}

	endpoint := strings.TrimSuffix(settings.Endpoint, "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", settings.Bucket, region)
	if endpoint != "" {
		baseURL = endpoint + "/" + settings.Bucket
	}
	return &Uploader{client: client, bucket: settings.Bucket, baseURL: baseURL}, nil
}

// Upload stores body under key and returns the object URL.
func (u *Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}
	return fmt.Sprintf("%s/%s", u.baseURL, key), nil
}
