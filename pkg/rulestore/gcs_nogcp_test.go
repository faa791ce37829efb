//go:build !gcp

package rulestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen_GCSRequiresBuildTag(t *testing.T) {
	_, err := Open(context.Background(), Config{Location: "gs://coach-config/table.yaml"})
	assert.ErrorContains(t, err, "-tags gcp")
}
