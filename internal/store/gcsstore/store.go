package gcsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/store"
	"google.golang.org/api/option"
)

const writeTimeout = 2 * time.Minute

// Store keeps one JSON object per dataset in a Cloud Storage bucket.
// Objects are named {prefix}/{id}.json.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// Options configures the storage client.
type Options struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
	Endpoint        string
}

// New creates a storage client using Application Default Credentials unless
// a credentials file is given.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("gcsstore.New: bucket is required")
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcsstore.New: create storage client: %w", err)
	}

	return &Store{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

// Save uploads ds as {prefix}/{id}.json, replacing any previous version.
func (s *Store) Save(ctx context.Context, id string, ds *domain.Dataset) error {
	if id == "" {
		return fmt.Errorf("dataset ID is required")
	}
	if ds == nil {
		return fmt.Errorf("dataset %s is nil", id)
	}

	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("gcsstore.Save: encode dataset %s: %w", id, err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(ObjectName(s.prefix, id)).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcsstore.Save: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcsstore.Save: finalize upload: %w", err)
	}
	return nil
}

// Get downloads and decodes the dataset object.
func (s *Store) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	name := ObjectName(s.prefix, id)

	rc, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("get dataset %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("gcsstore.Get: reading object %s/%s: %w", s.bucket, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("gcsstore.Get: reading bytes: %w", err)
	}

	var ds domain.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("gcsstore.Get: decode dataset %s: %w", id, err)
	}
	return &ds, nil
}

// Close releases the storage client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ObjectName maps a dataset id to its object path.
func ObjectName(prefix, id string) string {
	return path.Join(prefix, id+".json")
}

var _ store.Store = (*Store)(nil)
