package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	cause := errors.New("no such file")
	err := &ConfigurationError{Msg: "reading key file", Cause: cause}

	assert.Contains(t, err.Error(), "reading key file")
	assert.Contains(t, err.Error(), "no such file")
	assert.ErrorIs(t, err, cause)
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("outer: %w", &TransportError{Op: "get song", Cause: cause})

	var transportErr *TransportError
	assert.ErrorAs(t, wrapped, &transportErr)
	assert.Equal(t, "get song", transportErr.Op)
	assert.ErrorIs(t, wrapped, cause)
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Kind: "record", ID: "12345"}
	assert.Equal(t, `record "12345" not found`, err.Error())
}

func TestTranscodeError(t *testing.T) {
	err := &TranscodeError{Stderr: "Invalid data found when processing input"}
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestUpstreamError(t *testing.T) {
	withBody := &UpstreamError{Op: "embed audio", Status: 503, Body: "Model not loaded"}
	assert.Contains(t, withBody.Error(), "503")
	assert.Contains(t, withBody.Error(), "Model not loaded")

	noBody := &UpstreamError{Op: "fetch playlist", Status: 401}
	assert.Contains(t, noBody.Error(), "401")
}
