// Package sink opens artifact destinations: stdout, local files and
// S3-compatible object storage.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	Stdout   = "-"
	s3Scheme = "s3://"
)

// Open returns a writer for dest. An empty dest or "-" is stdout, an
// s3://bucket/key dest is uploaded on Close, anything else is a local path
// whose parent directories are created. The caller must Close the writer;
// its error reports whether the artifact was stored.
func Open(ctx context.Context, dest string, cfg S3Config, contentType string) (io.WriteCloser, error) {
	dest = strings.TrimSpace(dest)
	switch {
	case dest == "" || dest == Stdout:
		return nopCloser{os.Stdout}, nil
	case strings.HasPrefix(dest, s3Scheme):
		bucket, key, err := ParseS3URL(dest)
		if err != nil {
			return nil, err
		}
		client, err := NewS3Client(cfg)
		if err != nil {
			return nil, err
		}
		return newObjectWriter(ctx, client, bucket, key, contentType), nil
	default:
		return createFile(dest)
	}
}

// Describe renders dest for log lines.
func Describe(dest string) string {
	dest = strings.TrimSpace(dest)
	if dest == "" || dest == Stdout {
		return "stdout"
	}
	return dest
}

func createFile(path string) (*os.File, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
