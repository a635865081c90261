package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExitError tests code extraction and wrapping.
func TestExitError(t *testing.T) {
	err := NewExitError(ExitCommandError, "bad path")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "bad path", err.Error())

	inner := errors.New("disk full")
	wrapped := WrapExitError(ExitFailure, "saving", inner)
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "saving: disk full", wrapped.Error())
	assert.ErrorIs(t, wrapped, inner)

	// Wrapped further, still extractable.
	outer := fmt.Errorf("outer: %w", wrapped)
	assert.Equal(t, ExitFailure, GetExitCode(outer))

	// Plain errors default to failure.
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

// TestOutputFormatter_JSON tests the JSON envelopes.
func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"cycle": 3}))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)

	buf.Reset()
	require.NoError(t, f.Error("E104", "not yet due", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E104", resp.Error.Code)
	assert.Equal(t, "not yet due", resp.Error.Message)
}

// TestOutputFormatter_Text tests the human-readable renderings.
func TestOutputFormatter_Text(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error("E102", "unauthorized caller", nil))
	assert.Equal(t, "Error [E102]: unauthorized caller\n", buf.String())
}

// TestOutputFormatter_VerboseLog tests routing to the error writer.
func TestOutputFormatter_VerboseLog(t *testing.T) {
	var out, errw bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errw, Verbose: true}

	f.VerboseLog("loaded %d records", 5)
	assert.Empty(t, out.String(), "verbose output must not corrupt JSON stdout")
	assert.Equal(t, "loaded 5 records\n", errw.String())

	f.Verbose = false
	errw.Reset()
	f.VerboseLog("hidden")
	assert.Empty(t, errw.String())
}

// TestFormatAmount tests digit grouping.
func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "999", FormatAmount(999))
	assert.Equal(t, "1,000", FormatAmount(1000))
	assert.Equal(t, "150,000,000", FormatAmount(150_000_000))
	assert.Equal(t, "18,446,744,073,709,551,615", FormatAmount(^uint64(0)))
}
