package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"storyfetch/internal/config"
	"storyfetch/internal/services"
)

const (
	// One year, matching the immutable daily archive objects.
	cacheControl = "max-age=31556926"
	contentType  = "video/mp4"

	// SignedURLTTL is the lifetime of generated retrieval links.
	SignedURLTTL = 24 * time.Hour
)

// ObjectPutter is the S3 surface used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// URLPresigner mints time-limited retrieval links.
type URLPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Artifact describes a published daily video.
type Artifact struct {
	Bucket    string
	Key       string
	SignedURL string
	Expiry    time.Time
}

// Publisher uploads merged videos and mints signed retrieval URLs.
type Publisher struct {
	client    ObjectPutter
	presigner URLPresigner
	bucket    string
	folder    string
	logger    *slog.Logger
}

// Option configures the publisher.
type Option func(*Publisher)

// WithClients injects custom S3 clients (primarily for tests).
func WithClients(client ObjectPutter, presigner URLPresigner) Option {
	return func(p *Publisher) {
		if client != nil {
			p.client = client
		}
		if presigner != nil {
			p.presigner = presigner
		}
	}
}

// New constructs a publisher from the object storage configuration.
func New(cfg config.S3, logger *slog.Logger, opts ...Option) *Publisher {
	client := s3.New(clientOptions(cfg))

	publisher := &Publisher{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.BucketName,
		folder:    cfg.BucketFolder,
		logger:    logger.With("component", "publisher"),
	}
	for _, opt := range opts {
		opt(publisher)
	}
	return publisher
}

// clientOptions maps the storage configuration onto SDK options. An empty
// endpoint leaves BaseEndpoint unset so the SDK resolves the regional
// default instead of building URLs against an empty host.
func clientOptions(cfg config.S3) s3.Options {
	options := s3.Options{
		Region:       cfg.RegionName,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true,
	}
	if endpoint := strings.TrimSpace(cfg.EndpointURL); endpoint != "" {
		options.BaseEndpoint = aws.String(endpoint)
	}
	return options
}

// ObjectKey computes the bucket key for a given target date.
func (p *Publisher) ObjectKey(date time.Time) string {
	return path.Join(p.folder, date.Format("2006-01-02")+".mp4")
}

// Publish uploads the merged video as a private object and returns a
// 24-hour signed retrieval URL. A failed upload is fatal for the run; no
// retry is attempted.
func (p *Publisher) Publish(ctx context.Context, videoPath string, date time.Time) (Artifact, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrUpload, "publish", "open merged video", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrUpload, "publish", "stat merged video", err)
	}

	key := p.ObjectKey(date)
	p.logger.Info("uploading merged video", "bucket", p.bucket, "key", key, "bytes", info.Size())

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          file,
		ACL:           types.ObjectCannedACLPrivate,
		CacheControl:  aws.String(cacheControl),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrUpload, "publish", fmt.Sprintf("put object %s", key), err)
	}

	request, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(SignedURLTTL))
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrUpload, "publish", fmt.Sprintf("presign object %s", key), err)
	}

	return Artifact{
		Bucket:    p.bucket,
		Key:       key,
		SignedURL: request.URL,
		Expiry:    time.Now().Add(SignedURLTTL),
	}, nil
}
