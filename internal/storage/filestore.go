// Package storage provides read access to raw document files for the
// retrieval engine's last-resort tier.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/brandmill/brandmill-backend/internal/logger"
)

type FileStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// NewFileStore picks GCS when a bucket is configured, local disk otherwise.
func NewFileStore(log *logger.Logger) (FileStore, error) {
	if bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET_NAME")); bucket != "" {
		return NewGCSFileStore(log, bucket)
	}
	root := strings.TrimSpace(os.Getenv("FILE_STORAGE_ROOT"))
	if root == "" {
		root = "./storage"
	}
	return NewLocalFileStore(log, root), nil
}

type localFileStore struct {
	log  *logger.Logger
	root string
}

func NewLocalFileStore(log *logger.Logger, root string) FileStore {
	return &localFileStore{
		log:  log.With("service", "LocalFileStore"),
		root: root,
	}
}

func (s *localFileStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.root, clean)
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read local file %q: %w", path, err)
	}
	return data, nil
}

type gcsFileStore struct {
	log        *logger.Logger
	client     *storage.Client
	bucketName string
}

func NewGCSFileStore(log *logger.Logger, bucketName string) (FileStore, error) {
	serviceLog := log.With("service", "GCSFileStore")
	saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")

	ctx := context.Background()
	var client *storage.Client
	var err error
	if saPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadOnly))
	} else {
		client, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadOnly))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &gcsFileStore{
		log:        serviceLog,
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (s *gcsFileStore) Read(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	r, err := s.client.Bucket(s.bucketName).Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object %q: %w", path, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %q: %w", path, err)
	}
	return data, nil
}
