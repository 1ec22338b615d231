package gcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't
// already exist, so workflow retries never clobber an artifact that a
// previous attempt finished writing. Shared by all services.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, content string) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, strings.NewReader(content)); err != nil {
		_ = writer.Close()
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			slog.Info("Object already exists, skipping write.", "gcsObject", objectName)
			return nil // Not a failure in an idempotent workflow.
		}
		return fmt.Errorf("failed to write to GCS object %s: %w", objectName, err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS write for %s: %w", objectName, err)
	}
	return nil
}

// ReadObject reads the full content of a GCS object into memory. Proposal
// files and their artifacts are bounded in size, so buffering is fine.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string) ([]byte, error) {
	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// ObjectURI renders the canonical gs:// URI for a bucket and object name.
func ObjectURI(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// ParseObjectURI splits a gs://bucket/object URI into its parts.
func ParseObjectURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// URI: %q", uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("malformed gs:// URI: %q", uri)
	}
	return bucket, object, nil
}
