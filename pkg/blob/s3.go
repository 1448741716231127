package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/chartscribe/pkg/awsconf"
	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage stores blobs in an S3 bucket. The returned reference URL is the
// bucket's virtual-hosted URL unless a public base URL (e.g. a CDN) is
// configured.
type S3Storage struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

func NewS3Storage(ctx context.Context, bucket, publicBaseURL string) (*S3Storage, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, utils.WrapIfNotNil(fmt.Errorf("bucket name is required"))
	}

	awsCfg, err := awsconf.Load(ctx)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &S3Storage{
		client:        s3.NewFromConfig(awsCfg),
		bucket:        bucket,
		region:        awsCfg.Region,
		publicBaseURL: strings.TrimSuffix(strings.TrimSpace(publicBaseURL), "/"),
	}, nil
}

func (s *S3Storage) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	logging.NewLogger(ctx).Infof("blob_put backend=s3 bucket=%q key=%q bytes=%d", s.bucket, path, len(data))

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + path, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, path), nil
}
