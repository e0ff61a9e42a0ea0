// Package objectstore issues time-limited signed download URLs against
// S3-compatible object storage. Stored media keys are never served directly;
// every read goes through a presigned GET.
package objectstore

import (
	"context"
	"fmt"
	"time"

	appconfig "github.com/tumer294/studio2/internal/config"
	"github.com/tumer294/studio2/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Signed URLs stay valid for one hour.
const downloadURLExpiry = time.Hour

// Presigner exchanges a storage object key for a transient download URL.
type Presigner interface {
	PresignDownload(ctx context.Context, key string) (string, error)
}

// S3Presigner signs GET requests for one bucket.
type S3Presigner struct {
	bucket  string
	presign *s3.PresignClient
}

// NewS3Presigner builds the primary presigner from AWS credentials.
func NewS3Presigner(ctx context.Context, cfg *appconfig.AWSStorageConfig) (*S3Presigner, error) {
	if !cfg.Complete() {
		return nil, utils.NewConfigMissingError("AWS storage credentials are not fully configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, utils.NewUpstreamError("failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Presigner{
		bucket:  cfg.Bucket,
		presign: s3.NewPresignClient(client),
	}, nil
}

// NewR2Presigner builds the legacy presigner against a Cloudflare R2 account
// endpoint. R2 speaks the S3 protocol with path-style addressing.
func NewR2Presigner(ctx context.Context, cfg *appconfig.R2StorageConfig) (*S3Presigner, error) {
	if !cfg.Complete() {
		return nil, utils.NewConfigMissingError("R2 storage credentials are not fully configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, utils.NewUpstreamError("failed to load R2 configuration", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3Presigner{
		bucket:  cfg.Bucket,
		presign: s3.NewPresignClient(client),
	}, nil
}

// PresignDownload returns a one-hour signed GET URL for the given key.
func (p *S3Presigner) PresignDownload(ctx context.Context, key string) (string, error) {
	request, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(downloadURLExpiry))
	if err != nil {
		return "", utils.NewUpstreamError("failed to sign download URL", err)
	}
	return request.URL, nil
}
