package statement

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

// Load reads a statement from a local path or a gs://bucket/object URI and
// returns its base filename alongside the bytes.
func Load(ctx context.Context, location string) (string, []byte, error) {
	if !strings.HasPrefix(location, gcsScheme) {
		data, err := os.ReadFile(location)
		if err != nil {
			return "", nil, fmt.Errorf("statement.Load: %w", err)
		}
		return filepath.Base(location), data, nil
	}

	data, err := FetchFromGCS(ctx, location)
	if err != nil {
		return "", nil, err
	}
	_, object, _ := ParseGCSURI(location)
	return path.Base(object), data, nil
}

// ParseGCSURI splits gs://bucket/path/to/file into bucket and object name.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, gcsScheme) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, gcsScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// FetchFromGCS downloads the object bytes using Application Default Credentials.
func FetchFromGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}
	return data, nil
}
