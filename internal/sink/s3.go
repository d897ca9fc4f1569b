package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds object storage credentials for s3:// destinations.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// objectPutter is the subset of *minio.Client used for uploads.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// NewS3Client builds a minio client from cfg.
func NewS3Client(cfg S3Config) (*minio.Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return client, nil
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(u string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(u, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", u)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	key = strings.TrimLeft(key, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url must be s3://bucket/key: %q", u)
	}
	return bucket, key, nil
}

// objectWriter buffers an artifact and uploads it in one PutObject on
// Close. Nothing is stored if Close is never called.
type objectWriter struct {
	ctx         context.Context
	client      objectPutter
	bucket      string
	key         string
	contentType string
	buf         bytes.Buffer
	closed      bool
}

func newObjectWriter(ctx context.Context, client objectPutter, bucket, key, contentType string) *objectWriter {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &objectWriter{
		ctx:         ctx,
		client:      client,
		bucket:      bucket,
		key:         key,
		contentType: contentType,
	}
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("sink: write after close")
	}
	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	data := w.buf.Bytes()
	_, err := w.client.PutObject(w.ctx, w.bucket, w.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: w.contentType,
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", w.bucket, w.key, err)
	}
	return nil
}
