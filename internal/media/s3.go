package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/logger/adapter/stdlogger"
)

// S3Disk stores files in an S3 compatible bucket.
type S3Disk struct {
	client *s3.Client
	bucket string
}

var _ Disk = (*S3Disk)(nil)

// NewS3Disk builds a client from the resolved aws block. endpoint is optional and points
// the client at an S3 compatible service.
func NewS3Disk(ctx context.Context, a appconfig.AWS, endpoint string) (*S3Disk, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.DefaultRegion),
		awsconfig.WithLogger(stdlogger.New("s3")),
	}

	if a.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.AccessKeyID, a.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = a.UsePathStyleEndpoint
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &S3Disk{client: client, bucket: a.Bucket}, nil
}

// Name implements Disk.
func (d *S3Disk) Name() string {
	return DiskS3
}

// Bucket returns the bucket name.
func (d *S3Disk) Bucket() string {
	return d.bucket
}

// Put implements Disk.
func (d *S3Disk) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(path),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %s: %w", path, err)
	}

	return nil
}

// Open implements Disk.
func (d *S3Disk) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMediaNotFound
		}

		return nil, fmt.Errorf("get s3 object %s: %w", path, err)
	}

	return out.Body, nil
}

// Delete implements Disk.
func (d *S3Disk) Delete(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(d.bucket),
			Key:    aws.String(path),
		})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("delete s3 object %s: %w", path, err)
		}
	}

	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}

	var notFound *types.NotFound

	return errors.As(err, &notFound)
}
