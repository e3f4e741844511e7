package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// S3Config holds the configuration for an S3-compatible object store. The
// Endpoint field supports non-AWS providers (MinIO, R2, iDrive e2); leave it
// empty for standard AWS S3.
type S3Config struct {
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	ForcePathStyle bool

	// Prefix is the key prefix under which history objects live, e.g.
	// "history" yields keys like "history/signals_2026-08-24.json".
	Prefix string
}

// S3Store implements domain.HistoryStore on S3-compatible object storage.
type S3Store struct {
	s3     *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed history store and verifies bucket access
// with a HeadBucket call.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("history: s3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("history: s3 region is required")
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("history: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	store := &S3Store{
		s3:     client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("history: s3 bucket %s not accessible: %w", cfg.Bucket, err)
	}

	return store, nil
}

// key builds the object key for a date.
func (s *S3Store) key(date string) string {
	return path.Join(s.prefix, fileName(date))
}

// Save uploads the set as the object for its timestamp's date.
func (s *S3Store) Save(ctx context.Context, set domain.SignalSet) error {
	date := set.Timestamp.UTC().Format(dateLayout)
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode set for %s: %w", date, err)
	}

	key := s.key(date)
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("history: put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Load downloads and decodes the set for a date. It returns domain.ErrNotFound
// when no object exists for that day.
func (s *S3Store) Load(ctx context.Context, date string) (domain.SignalSet, error) {
	key := s.key(date)
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return domain.SignalSet{}, fmt.Errorf("history: %w: date=%s", domain.ErrNotFound, date)
		}
		return domain.SignalSet{}, fmt.Errorf("history: get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return domain.SignalSet{}, fmt.Errorf("history: read s3://%s/%s: %w", s.bucket, key, err)
	}

	var set domain.SignalSet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.SignalSet{}, fmt.Errorf("history: decode s3://%s/%s: %w", s.bucket, key, err)
	}
	return set, nil
}

// ListDates lists every stored set's date in ascending order, paging through
// the bucket under the configured prefix.
func (s *S3Store) ListDates(ctx context.Context) ([]string, error) {
	var dates []string

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}
	paginator := s3.NewListObjectsV2Paginator(s.s3, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("history: list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if date := dateFromFileName(path.Base(*obj.Key)); date != "" {
				dates = append(dates, date)
			}
		}
	}

	sort.Strings(dates)
	return dates, nil
}

// normalizeEndpoint ensures the endpoint has a scheme, defaulting to https or
// http based on useSSL.
func normalizeEndpoint(endpoint string, useSSL bool) string {
	parsed, err := url.Parse(endpoint)
	if err == nil && parsed.Scheme != "" {
		return endpoint
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + endpoint
}

var _ domain.HistoryStore = (*S3Store)(nil)
