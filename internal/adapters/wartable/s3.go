package wartable

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/pkg/metrics"
)

// S3Config locates a mirror of the tables in a bucket.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
	BattingKey      string
	PitchingKey     string
}

// ObjectGetter is the part of the S3 client the source uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the tables from S3 or an S3 compatible store.
type S3Source struct {
	client      ObjectGetter
	bucket      string
	battingKey  string
	pitchingKey string
}

// NewS3Source builds an S3 client from cfg and the default AWS credential
// chain; static keys in cfg take precedence.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return NewS3SourceFromClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.BattingKey, cfg.PitchingKey)
}

// NewS3SourceFromClient wraps an existing client. Empty keys use the
// public table file names.
func NewS3SourceFromClient(client ObjectGetter, bucket, battingKey, pitchingKey string) (*S3Source, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}
	if battingKey == "" {
		battingKey = DefaultBattingKey
	}
	if pitchingKey == "" {
		pitchingKey = DefaultPitchingKey
	}
	return &S3Source{
		client:      client,
		bucket:      bucket,
		battingKey:  strings.TrimPrefix(battingKey, "/"),
		pitchingKey: strings.TrimPrefix(pitchingKey, "/"),
	}, nil
}

// Fetch opens the object for role. The caller closes the body.
func (s *S3Source) Fetch(ctx context.Context, role model.Role) (io.ReadCloser, error) {
	key := s.battingKey
	if role == model.Pitcher {
		key = s.pitchingKey
	}

	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.RecordUpstreamRequest("war_table_s3", "error", float64(time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("%w: s3://%s/%s: %w", ErrFetchTable, s.bucket, key, err)
	}
	metrics.RecordUpstreamRequest("war_table_s3", "200", float64(time.Since(start).Milliseconds()))
	return out.Body, nil
}
