package rulestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinT518/APEX-performance-sub001/pkg/retry"
)

const tableDoc = `version: 1.3.0
rules:
  structural_RED:
    "*":
      action: MODIFY
      protocol: "Bike instead."
      overrides:
        - type: BIKE
`

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{PolicyID: "test", BaseMs: 1, MaxMs: 2, MaxAttempts: attempts}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "rules/table.yaml", want: Location{Scheme: SchemeFile, Path: "rules/table.yaml"}},
		{in: "file:///etc/apex/table.yaml", want: Location{Scheme: SchemeFile, Path: "/etc/apex/table.yaml"}},
		{in: "s3://coach-config/rules/table.yaml", want: Location{Scheme: SchemeS3, Bucket: "coach-config", Key: "rules/table.yaml"}},
		{in: "gs://coach-config/table.yaml", want: Location{Scheme: SchemeGCS, Bucket: "coach-config", Key: "table.yaml"}},
		{in: "s3://bucket-only", wantErr: true},
		{in: "gs:///key", wantErr: true},
		{in: "http://example.com/table.yaml", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_FileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tableDoc), 0o600))

	table, err := LoadConfigured(context.Background(), Config{Location: path}, fastPolicy(3))
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", table.Version())
}

func TestLoad_MissingFileIsNotRetried(t *testing.T) {
	src := &countingSource{inner: FileSource{Path: filepath.Join(t.TempDir(), "absent.yaml")}}
	_, err := Load(context.Background(), src, fastPolicy(5))
	require.Error(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestLoad_InvalidDocumentFails(t *testing.T) {
	src := staticSource("version: 2.0.0\nrules: {}\n")
	_, err := Load(context.Background(), src, fastPolicy(1))
	assert.ErrorContains(t, err, "unsupported major version")
}

func TestLoad_TransientFailureRetried(t *testing.T) {
	src := &flakySource{failures: 2, data: []byte(tableDoc)}
	table, err := Load(context.Background(), src, fastPolicy(3))
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", table.Version())
	assert.Equal(t, 3, src.calls)
}

func TestLoadConfigured_EmptyLocationUsesBuiltIn(t *testing.T) {
	table, err := LoadConfigured(context.Background(), Config{}, fastPolicy(1))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", table.Version())
}

type fakeS3 struct {
	body  string
	err   error
	input *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(f.body))}, nil
}

func TestS3Source_Fetch(t *testing.T) {
	fake := &fakeS3{body: tableDoc}
	src := &S3Source{client: fake, bucket: "coach-config", key: "rules/table.yaml"}

	table, err := Load(context.Background(), src, fastPolicy(1))
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", table.Version())
	assert.Equal(t, "coach-config", *fake.input.Bucket)
	assert.Equal(t, "rules/table.yaml", *fake.input.Key)
	assert.Equal(t, "s3://coach-config/rules/table.yaml", src.String())
}

func TestS3Source_MissingKeyIsPermanent(t *testing.T) {
	src := &S3Source{client: &fakeS3{err: &types.NoSuchKey{}}, bucket: "b", key: "k"}
	_, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, retry.ErrPermanent)
}

func TestS3Source_OtherErrorsAreTransient(t *testing.T) {
	src := &S3Source{client: &fakeS3{err: errors.New("connection reset")}, bucket: "b", key: "k"}
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, retry.ErrPermanent)
}

type staticSource string

func (s staticSource) Fetch(context.Context) ([]byte, error) { return []byte(s), nil }
func (s staticSource) String() string                        { return "static" }

type countingSource struct {
	inner Source
	calls int
}

func (c *countingSource) Fetch(ctx context.Context) ([]byte, error) {
	c.calls++
	return c.inner.Fetch(ctx)
}
func (c *countingSource) String() string { return c.inner.String() }

type flakySource struct {
	failures int
	calls    int
	data     []byte
}

func (f *flakySource) Fetch(context.Context) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("temporarily unavailable")
	}
	return f.data, nil
}
func (f *flakySource) String() string { return "flaky" }
