package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client defines the subset of the S3 API used by S3Dialer sessions.
type S3Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config contains configuration for the S3 backend.
type S3Config struct {
	Bucket         string `env:"S3_BUCKET"`            // Bucket holding the documents.
	Region         string `env:"S3_REGION"`            // Region of the bucket.
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`     // AccessKeyID for static credentials; empty uses the default chain.
	SecretKey      string `env:"S3_SECRET_ACCESS_KEY"` // SecretKey for static credentials.
	Endpoint       string `env:"S3_ENDPOINT"`          // Endpoint for S3-compatible services.
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE"`  // ForcePathStyle for services like MinIO.
}

// S3Option configures NewS3Dialer.
type S3Option func(*s3Options)

type s3Options struct {
	client        S3Client
	configOptions []func(*config.LoadOptions) error
	clientOptions []func(*s3.Options)
	httpClient    *http.Client
}

// WithS3Client sets a pre-configured client, typically a mock in tests.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) { o.client = client }
}

// WithS3ConfigOption adds a custom AWS config option.
func WithS3ConfigOption(option func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) { o.configOptions = append(o.configOptions, option) }
}

// WithS3ClientOption adds a custom S3 client option.
func WithS3ClientOption(option func(*s3.Options)) S3Option {
	return func(o *s3Options) { o.clientOptions = append(o.clientOptions, option) }
}

// WithS3HTTPClient sets a custom HTTP client for S3 requests.
func WithS3HTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) { o.httpClient = client }
}

// S3Dialer hands out sessions backed by a shared S3 client. The SDK manages
// its own HTTP connections, so a session holds no network resource.
type S3Dialer struct {
	client S3Client
	bucket string
}

// NewS3Dialer builds the S3 client from cfg unless WithS3Client is given.
func NewS3Dialer(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Dialer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: S3 bucket is required", ErrInvalidConfig)
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.client != nil {
		return &S3Dialer{client: options.client, bucket: cfg.Bucket}, nil
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: S3 region is required", ErrInvalidConfig)
	}

	awsOptions := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}
	if options.httpClient != nil {
		awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
	}
	awsOptions = append(awsOptions, options.configOptions...)

	awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: load AWS config: %v", ErrInvalidConfig, err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
		for _, opt := range options.clientOptions {
			opt(o)
		}
	})

	return &S3Dialer{client: client, bucket: cfg.Bucket}, nil
}

func (d *S3Dialer) Dial(context.Context) (Session, error) {
	return &s3Session{client: d.client, bucket: d.bucket}, nil
}

type s3Session struct {
	client S3Client
	bucket string
}

func objectKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func (s *s3Session) head(ctx context.Context, op, p string) (*s3.HeadObjectOutput, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(p)),
	})
	if err != nil {
		return nil, classifyS3(op, p, err)
	}
	return out, nil
}

func (s *s3Session) Size(ctx context.Context, p string) (int64, error) {
	out, err := s.head(ctx, "size", p)
	if err != nil {
		return 0, err
	}
	return aws.ToInt64(out.ContentLength), nil
}

func (s *s3Session) Retrieve(ctx context.Context, p string, w io.Writer) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(p)),
	})
	if err != nil {
		return classifyS3("retrieve", p, err)
	}
	defer func() { _ = out.Body.Close() }()
	if _, err := io.Copy(w, out.Body); err != nil {
		return classifyS3("retrieve", p, err)
	}
	return nil
}

func (s *s3Session) Store(ctx context.Context, p string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(p)),
		Body:        r,
		ContentType: aws.String(contentType(p)),
	})
	return classifyS3("store", p, err)
}

// MakeDirAll is a no-op: S3 has no directories.
func (s *s3Session) MakeDirAll(context.Context, string) error { return nil }

func (s *s3Session) List(ctx context.Context, dir string) ([]Entry, error) {
	prefix := objectKey(dir)
	if prefix != "" {
		prefix += "/"
	}

	var (
		entries []Entry
		token   *string
	)
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, classifyS3("list", dir, err)
		}
		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			entries = append(entries, Entry{Name: name, Type: EntryDir})
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			entries = append(entries, Entry{
				Name:    name,
				Type:    EntryFile,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return entries, nil
		}
		token = out.NextContinuationToken
	}
}

func (s *s3Session) ModTime(ctx context.Context, p string) (time.Time, error) {
	out, err := s.head(ctx, "modtime", p)
	if err != nil {
		return time.Time{}, err
	}
	return aws.ToTime(out.LastModified), nil
}

func (s *s3Session) Close() error { return nil }

func contentType(p string) string {
	if strings.EqualFold(path.Ext(p), ".json") {
		return "application/json"
	}
	return "application/octet-stream"
}

func classifyS3(op, p string, err error) error {
	if err == nil {
		return nil
	}
	return newError(s3Kind(err), op, p, err)
}

// s3Kind maps S3 API errors to a Kind.
func s3Kind(err error) Kind {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return KindNotFound
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return KindNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return KindNotFound
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "InternalError", "Throttling":
			return KindTransient
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch code := respErr.HTTPStatusCode(); {
		case code == http.StatusNotFound:
			return KindNotFound
		case code >= 500:
			return KindTransient
		}
	}

	return networkKind(err)
}
