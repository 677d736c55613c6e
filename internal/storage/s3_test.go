package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/videohub/backend/internal/config"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	data, _ := io.ReadAll(input.Body)
	f.body = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{}, nil
}

func TestSaveThumbnail(t *testing.T) {
	uploader := &fakeUploader{}
	store := &S3Storage{uploader: uploader, bucket: "media", baseURL: "https://cdn.example.com"}

	location, err := store.SaveThumbnail(context.Background(), "video-1", "Poster.PNG", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("SaveThumbnail returned error: %v", err)
	}

	key := aws.ToString(uploader.input.Key)
	if !strings.HasPrefix(key, "thumbnails/video-1/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
	if aws.ToString(uploader.input.Bucket) != "media" || aws.ToString(uploader.input.ContentType) != "image/png" {
		t.Fatalf("unexpected upload input %+v", uploader.input)
	}
	if uploader.body != "png-bytes" {
		t.Fatalf("unexpected body %q", uploader.body)
	}
	if location != "https://cdn.example.com/"+key {
		t.Fatalf("unexpected location %q", location)
	}
}

func TestSaveThumbnailRejectsUnknownType(t *testing.T) {
	uploader := &fakeUploader{}
	store := &S3Storage{uploader: uploader, bucket: "media"}

	if _, err := store.SaveThumbnail(context.Background(), "video-1", "script.sh", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if uploader.input != nil {
		t.Fatal("expected no upload for rejected file")
	}
}

func TestSaveThumbnailUploadFailure(t *testing.T) {
	store := &S3Storage{uploader: &fakeUploader{err: errors.New("denied")}, bucket: "media"}

	if _, err := store.SaveThumbnail(context.Background(), "video-1", "a.jpg", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ObjectStoreConfig
		want string
	}{
		{name: "explicit", cfg: config.ObjectStoreConfig{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, want: "https://cdn.example.com"},
		{name: "custom endpoint", cfg: config.ObjectStoreConfig{Bucket: "b", Endpoint: "http://minio:9000"}, want: "http://minio:9000/b"},
		{name: "aws", cfg: config.ObjectStoreConfig{Bucket: "b", Region: "eu-west-1"}, want: "https://b.s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicBaseURL(tt.cfg); got != tt.want {
				t.Fatalf("publicBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
