package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/incident-responder/internal/domain/logs"
)

// MinioSource reads incident logs from object storage under the key
// convention {incident_id}/{incident_id}.log (fallback {group}/{incident_id}.log).
type MinioSource struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewMinioSource buat koneksi MinIO dan cek bucket
func NewMinioSource(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinioSource, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada; a missing log bucket is a config error, not
	// something we should silently create
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", logs.ErrUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: bucket %q does not exist", logs.ErrUnavailable, bucket)
	}

	return &MinioSource{client: cli, bucketName: bucket, region: region}, nil
}

// Fetch implementasi logs.Source
func (s *MinioSource) Fetch(ctx context.Context, incidentID, group string) (string, error) {
	keys := []string{
		fmt.Sprintf("%s/%s.log", incidentID, incidentID),
		fmt.Sprintf("%s/%s.log", group, incidentID),
	}

	attempted := make([]string, 0, len(keys))
	for _, key := range keys {
		attempted = append(attempted, fmt.Sprintf("s3://%s/%s", s.bucketName, key))
		text, err := s.read(ctx, key)
		if err == nil {
			return text, nil
		}
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			continue
		}
		if resp.Code == "NoSuchBucket" {
			return "", fmt.Errorf("%w: bucket %q does not exist", logs.ErrUnavailable, s.bucketName)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", logs.ErrUnavailable, err)
	}

	return "", &logs.NotFoundError{IncidentID: incidentID, Attempted: attempted}
}

func (s *MinioSource) read(ctx context.Context, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()

	// GetObject is lazy; missing keys only surface on read.
	b, err := io.ReadAll(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
