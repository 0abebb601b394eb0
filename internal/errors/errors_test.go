package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")

	assert.Equal(t, "Invalid request format", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
}

func TestNewWithDetails(t *testing.T) {
	err := NewWithDetails(http.StatusNotFound, "NOT_FOUND", "gold not found", "gold")

	assert.Equal(t, "gold not found", err.Message)
	assert.Equal(t, "gold", err.Details)
}

func TestUnknownMetalError(t *testing.T) {
	err := UnknownMetalError("rhodium")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "UNKNOWN_METAL", err.ErrorCode)
	assert.Contains(t, err.Message, "rhodium")
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrNoSnapshots)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "NO_SNAPSHOTS", resp.Error.ErrorCode)
}

func TestAppError(t *testing.T) {
	cause := New(http.StatusInternalServerError, "FILESYSTEM_ERROR", "disk full")
	err := NewStorageError("write snapshot", cause)

	assert.Contains(t, err.Error(), "STORAGE")
	assert.Contains(t, err.Error(), "write snapshot")
	assert.Equal(t, cause, err.Unwrap())

	err.WithContext("metal", "silver")
	assert.Equal(t, "silver", err.Context["metal"])
}

func TestProblemDetailsMarshalJSON(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNoSnapshots,
		"No Snapshot Data",
		"no inventory snapshots for palladium",
		"/api/risk/palladium",
	).WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeNoSnapshots, decoded["type"])
	assert.Equal(t, "No Snapshot Data", decoded["title"])
	assert.Equal(t, float64(http.StatusNotFound), decoded["status"])
	assert.Equal(t, "abc-123", decoded["trace_id"])
}
