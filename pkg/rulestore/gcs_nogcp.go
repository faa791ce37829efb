//go:build !gcp

package rulestore

import (
	"context"
	"fmt"
)

func newGCSSource(_ context.Context, bucket, object string) (Source, error) {
	return nil, fmt.Errorf("rulestore: gs://%s/%s: GCS is not enabled in this build (use -tags gcp)", bucket, object)
}
