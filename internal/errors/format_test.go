package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_StructuredError(t *testing.T) {
	err := NoTextError().WithDetail("document", "policy.txt")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: no extractable text")
	assert.Contains(t, out, "document: policy.txt")
	assert.Contains(t, out, "Code: ERR_201_NO_TEXT")
}

func TestFormatForCLI_PlainErrorPassesThrough(t *testing.T) {
	err := errors.New("something broke")
	assert.Equal(t, "something broke", FormatForCLI(err))
}

func TestFormatForCLI_NilError(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatForCLI_WrappedStructuredError(t *testing.T) {
	err := fmt.Errorf("ingest: %w", EmptyCorpusError(nil))

	out := FormatForCLI(err)

	assert.Contains(t, out, "Code: ERR_202_EMPTY_CORPUS")
}

func TestFormatForLog_StructuredFields(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := BackendUnavailableError("ollama", cause).WithDetail("url", "http://localhost:11434")

	fields := FormatForLog(err)

	require.NotNil(t, fields)
	assert.Equal(t, ErrCodeBackendUnavailable, fields["error_code"])
	assert.Equal(t, string(CategoryBackend), fields["category"])
	assert.Equal(t, true, fields["retryable"])
	assert.Equal(t, "dial tcp: refused", fields["cause"])
	assert.Equal(t, "http://localhost:11434", fields["detail_url"])
}

func TestFormatForLog_PlainError(t *testing.T) {
	fields := FormatForLog(errors.New("plain"))

	assert.Equal(t, map[string]any{"error": "plain"}, fields)
}
