package storage_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"storyfetch/internal/config"
	"storyfetch/internal/logging"
	"storyfetch/internal/services"
	"storyfetch/internal/storage"
)

type stubPutter struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (s *stubPutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	s.bodies = append(s.bodies, string(data))
	return &s3.PutObjectOutput{}, nil
}

type stubPresigner struct {
	inputs []*s3.GetObjectInput
	url    string
	err    error
}

func (s *stubPresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return nil, s.err
	}
	return &v4.PresignedHTTPRequest{URL: s.url, Method: "GET"}, nil
}

func newPublisher(t *testing.T, putter *stubPutter, presigner *stubPresigner) *storage.Publisher {
	t.Helper()
	cfg := config.S3{
		RegionName:      "us-east-1",
		EndpointURL:     "https://s3.example.com",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "stories",
		BucketFolder:    "daily",
	}
	return storage.New(cfg, logging.NewNop(), storage.WithClients(putter, presigner))
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "2024-03-01.mp4")
	if err := os.WriteFile(path, []byte("merged-video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func TestPublishUploadsPrivateObjectWithCacheControl(t *testing.T) {
	putter := &stubPutter{}
	presigner := &stubPresigner{url: "https://s3.example.com/stories/daily/2024-03-01.mp4?X-Amz-Expires=86400"}
	publisher := newPublisher(t, putter, presigner)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	artifact, err := publisher.Publish(context.Background(), writeVideo(t), date)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(putter.inputs) != 1 {
		t.Fatalf("expected one upload, got %d", len(putter.inputs))
	}
	in := putter.inputs[0]
	if aws.ToString(in.Bucket) != "stories" {
		t.Fatalf("unexpected bucket %q", aws.ToString(in.Bucket))
	}
	if aws.ToString(in.Key) != "daily/2024-03-01.mp4" {
		t.Fatalf("unexpected key %q", aws.ToString(in.Key))
	}
	if in.ACL != types.ObjectCannedACLPrivate {
		t.Fatalf("expected private ACL, got %q", in.ACL)
	}
	if aws.ToString(in.CacheControl) != "max-age=31556926" {
		t.Fatalf("unexpected cache control %q", aws.ToString(in.CacheControl))
	}
	if putter.bodies[0] != "merged-video" {
		t.Fatalf("unexpected uploaded body %q", putter.bodies[0])
	}

	if artifact.Key != "daily/2024-03-01.mp4" || artifact.Bucket != "stories" {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
	if artifact.SignedURL != presigner.url {
		t.Fatalf("unexpected signed url %q", artifact.SignedURL)
	}
	remaining := time.Until(artifact.Expiry)
	if remaining < 23*time.Hour || remaining > 24*time.Hour {
		t.Fatalf("expected ~24h expiry, got %v", remaining)
	}
}

func TestPublishPresignsExactUploadedObject(t *testing.T) {
	putter := &stubPutter{}
	presigner := &stubPresigner{url: "https://signed.example"}
	publisher := newPublisher(t, putter, presigner)

	date := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	if _, err := publisher.Publish(context.Background(), writeVideo(t), date); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(presigner.inputs) != 1 {
		t.Fatalf("expected one presign call, got %d", len(presigner.inputs))
	}
	if got, want := aws.ToString(presigner.inputs[0].Key), aws.ToString(putter.inputs[0].Key); got != want {
		t.Fatalf("presigned key %q differs from uploaded key %q", got, want)
	}
}

func TestPublishUploadFailureIsFatalAndSkipsPresign(t *testing.T) {
	putter := &stubPutter{err: errors.New("503 slow down")}
	presigner := &stubPresigner{url: "https://signed.example"}
	publisher := newPublisher(t, putter, presigner)

	_, err := publisher.Publish(context.Background(), writeVideo(t), time.Now())
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
	if len(presigner.inputs) != 0 {
		t.Fatal("presign must not run after a failed upload")
	}
}

func TestPublishMissingVideoIsUploadError(t *testing.T) {
	publisher := newPublisher(t, &stubPutter{}, &stubPresigner{})
	_, err := publisher.Publish(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), time.Now())
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
}
