// Package archive writes swept action records to S3 before deletion, so the
// retention sweeper can remove rows from Postgres without losing the trail.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"action-dispatch-service/internal/config"
	"action-dispatch-service/internal/models"
)

// S3Archiver stores sweep batches as JSON objects.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds an archiver from config. Returns nil when no bucket is set.
func New(ctx context.Context, cfg config.Config) (*S3Archiver, error) {
	if cfg.ArchiveS3Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.ArchiveS3Region),
	}
	if cfg.ArchiveS3Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:               cfg.ArchiveS3Endpoint,
					HostnameImmutable: cfg.ArchiveS3PathStyle,
					SigningRegion:     cfg.ArchiveS3Region,
					Source:            aws.EndpointSourceCustom,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ArchiveS3PathStyle
	})
	return &S3Archiver{client: client, bucket: cfg.ArchiveS3Bucket, prefix: cfg.ArchiveS3Prefix}, nil
}

// Archive writes the batch as one JSON object keyed by sweep time and
// returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, when time.Time, actions []models.Action) (string, error) {
	body, err := json.Marshal(actions)
	if err != nil {
		return "", fmt.Errorf("marshal sweep batch: %w", err)
	}

	key := path.Join(a.prefix, when.UTC().Format("2006/01/02"), fmt.Sprintf("sweep-%s.json", when.UTC().Format("150405")))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put archive object: %w", err)
	}
	return key, nil
}
