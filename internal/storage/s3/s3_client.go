package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"facturas/internal/config"
	"facturas/internal/domain"
	"facturas/internal/port"
)

// invoiceStore keeps uploaded invoice files in a bucket laid out as
// <user_id>/<invoice_id>/<file name>.
type invoiceStore struct {
	api       *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	maxBytes  int64
}

// NewS3Client builds the S3-backed ObjectStorage. A custom endpoint switches
// to path-style addressing so MinIO and LocalStack work unchanged.
func NewS3Client(cfg *config.S3Config) (port.ObjectStorage, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		static := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(static))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info().Str("region", cfg.Region).Str("bucket", cfg.Bucket).Bool("custom_endpoint", cfg.Endpoint != "").
		Msg("s3: invoice store ready")

	return &invoiceStore{
		api:       api,
		presigner: s3.NewPresignClient(api),
		uploader: manager.NewUploader(api, func(u *manager.Uploader) {
			u.Concurrency = 2
		}),
		maxBytes: cfg.MaxFileSizeMB << 20,
	}, nil
}

func (s *invoiceStore) Upload(ctx context.Context, in port.UploadInput) (*port.UploadOutput, error) {
	put := &s3.PutObjectInput{
		Bucket:      aws.String(in.Bucket),
		Key:         aws.String(in.Key),
		Body:        in.Body,
		ContentType: aws.String(in.ContentType),
	}
	if in.Size > 0 {
		put.ContentLength = aws.Int64(in.Size)
	}

	res, err := s.uploader.Upload(ctx, put)
	if err != nil {
		return nil, fmt.Errorf("s3: storing %s: %w", in.Key, err)
	}
	log.Debug().Str("key", in.Key).Int64("size", in.Size).Msg("s3: invoice file stored")

	return &port.UploadOutput{Location: res.Location, ETag: aws.ToString(res.ETag)}, nil
}

// Download reads the whole object. Missing keys map to domain.ErrNotFound;
// objects larger than the configured upload cap are refused.
func (s *invoiceStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("s3: %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3: fetching %s: %w", key, err)
	}
	defer obj.Body.Close()

	body := io.Reader(obj.Body)
	if s.maxBytes > 0 {
		if aws.ToInt64(obj.ContentLength) > s.maxBytes {
			return nil, fmt.Errorf("s3: %s: %w", key, domain.ErrFileTooLarge)
		}
		body = io.LimitReader(obj.Body, s.maxBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("s3: reading %s: %w", key, err)
	}
	return data, nil
}

// Delete removes an object. Removing a key that is already gone succeeds.
func (s *invoiceStore) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isMissing(err) {
		return fmt.Errorf("s3: removing %s: %w", key, err)
	}
	log.Debug().Str("key", key).Msg("s3: invoice file removed")
	return nil
}

// List returns every object under prefix in lexicographic key order.
func (s *invoiceStore) List(ctx context.Context, bucket, prefix string) ([]port.ObjectInfo, error) {
	pages := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var out []port.ObjectInfo
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: listing %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, port.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

// GetPresignedURL signs a short-lived GET that browsers render inline under
// the original file name.
func (s *invoiceStore) GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("inline; filename=%q", path.Base(key))),
	}, s3.WithPresignExpires(time.Duration(expirySeconds)*time.Second))
	if err != nil {
		return "", fmt.Errorf("s3: signing %s: %w", key, err)
	}
	return req.URL, nil
}

func isMissing(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
