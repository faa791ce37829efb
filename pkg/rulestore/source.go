// Package rulestore fetches the substitution table document from a file,
// an S3 object or a GCS object and parses it into a substitution.Table.
package rulestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/MartinT518/APEX-performance-sub001/pkg/retry"
	"github.com/MartinT518/APEX-performance-sub001/pkg/substitution"
)

// Source yields the raw table document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// Config selects and configures a source.
type Config struct {
	// Location is a file path, s3://bucket/key or gs://bucket/object.
	// Empty selects the built-in table.
	Location string
	Region   string
	// Endpoint overrides the S3 endpoint (MinIO, LocalStack).
	Endpoint string
}

// Location schemes.
const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
)

// Location is a parsed rules location.
type Location struct {
	Scheme string
	Bucket string
	Key    string
	Path   string
}

// ParseLocation splits a rules location into its parts.
func ParseLocation(loc string) (Location, error) {
	switch {
	case strings.HasPrefix(loc, "s3://"):
		return objectLocation(SchemeS3, strings.TrimPrefix(loc, "s3://"))
	case strings.HasPrefix(loc, "gs://"):
		return objectLocation(SchemeGCS, strings.TrimPrefix(loc, "gs://"))
	case strings.HasPrefix(loc, "file://"):
		return Location{Scheme: SchemeFile, Path: strings.TrimPrefix(loc, "file://")}, nil
	case strings.Contains(loc, "://"):
		return Location{}, fmt.Errorf("rulestore: unsupported location %q", loc)
	case loc == "":
		return Location{}, errors.New("rulestore: empty location")
	default:
		return Location{Scheme: SchemeFile, Path: loc}, nil
	}
}

func objectLocation(scheme, rest string) (Location, error) {
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("rulestore: %s location needs bucket and key", scheme)
	}
	return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// Open returns the source for cfg.Location.
func Open(ctx context.Context, cfg Config) (Source, error) {
	loc, err := ParseLocation(cfg.Location)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case SchemeS3:
		return NewS3Source(ctx, S3Config{Bucket: loc.Bucket, Key: loc.Key, Region: cfg.Region, Endpoint: cfg.Endpoint})
	case SchemeGCS:
		return newGCSSource(ctx, loc.Bucket, loc.Key)
	default:
		return FileSource{Path: loc.Path}, nil
	}
}

// FileSource reads the document from the local filesystem.
type FileSource struct {
	Path string
}

// Fetch reads the file. A missing file is permanent.
func (f FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, retry.Permanent(err)
	}
	return data, err
}

func (f FileSource) String() string { return "file://" + f.Path }

// Load fetches the document under policy and parses it. Fetch failures are
// retried; a document that fails validation is not.
func Load(ctx context.Context, src Source, policy retry.Policy) (*substitution.Table, error) {
	var data []byte
	err := retry.Do(ctx, policy, retry.Params{Operation: "rules.fetch", Key: src.String()},
		func(ctx context.Context) error {
			var ferr error
			data, ferr = src.Fetch(ctx)
			return ferr
		})
	if err != nil {
		return nil, fmt.Errorf("rulestore: fetch %s: %w", src, err)
	}
	table, err := substitution.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rulestore: %s: %w", src, err)
	}
	slog.Default().With("component", "rulestore").InfoContext(ctx, "substitution table loaded",
		"source", src.String(), "version", table.Version())
	return table, nil
}

// LoadConfigured returns the built-in table when cfg has no location.
func LoadConfigured(ctx context.Context, cfg Config, policy retry.Policy) (*substitution.Table, error) {
	if cfg.Location == "" {
		return substitution.Default(), nil
	}
	src, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := src.(interface{ Close() error }); ok {
		defer func() { _ = c.Close() }()
	}
	return Load(ctx, src, policy)
}
