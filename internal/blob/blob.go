// Package blob stores the persisted dataset files: a local directory, an S3
// bucket prefix, or process memory for tests.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem is a local directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 is an S3 or MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps blobs in process memory.
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // User metadata (small, flat key-value)
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is a flat key space of blobs. Put replaces an existing blob, so a
// dataset can be saved again to the same location.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// ErrNotFound is returned by Get and Head for a missing key.
var ErrNotFound = errors.New("blob: not found")

// Location is a parsed dataset location.
type Location struct {
	Driver Driver
	// Root is the directory for fs, the bucket for s3.
	Root string
	// Prefix is prepended to every key.
	Prefix string
}

// ParseLocation reads "s3://bucket/prefix", "mem://prefix" or a directory.
func ParseLocation(s string) (Location, error) {
	switch {
	case strings.HasPrefix(s, "s3://"):
		rest := strings.TrimPrefix(s, "s3://")
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("location %q has no bucket", s)
		}
		return Location{Driver: DriverS3, Root: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	case strings.HasPrefix(s, "mem://"):
		return Location{Driver: DriverMemory, Prefix: strings.Trim(strings.TrimPrefix(s, "mem://"), "/")}, nil
	case strings.TrimSpace(s) == "":
		return Location{}, fmt.Errorf("empty location")
	}
	return Location{Driver: DriverFilesystem, Root: s}, nil
}

// Key joins the location prefix and name.
func (l Location) Key(name string) string {
	if l.Prefix == "" {
		return name
	}
	return l.Prefix + "/" + name
}

// Open returns the store for a location. Memory stores are shared per
// process so a dataset saved to mem:// can be loaded back.
func Open(ctx context.Context, l Location) (Store, error) {
	switch l.Driver {
	case DriverFilesystem:
		return NewFilesystem(l.Root)
	case DriverS3:
		return NewS3(ctx, S3Config{Bucket: l.Root})
	case DriverMemory:
		return sharedMemory, nil
	}
	return nil, fmt.Errorf("unknown blob driver %s", l.Driver)
}

var sharedMemory = NewMemory()

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
