package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"musiclip/core/ingest"
)

func TestSingleRunError(t *testing.T) {
	err := singleRunError("123", &ingest.Summary{Total: 1, Failed: 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "123")

	assert.NoError(t, singleRunError("123", &ingest.Summary{Total: 1, Processed: 1}))
	assert.NoError(t, singleRunError("123", &ingest.Summary{Total: 1, Skipped: 1}))
}
