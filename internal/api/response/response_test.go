package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairwise/internal/core"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusAccepted, map[string]string{"job_id": "abc"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"job_id": "abc"}, body.Data)
	assert.False(t, body.Meta.Timestamp.IsZero())
}

func TestError_TypedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusUnprocessableEntity,
		core.WrapError(core.ErrDegenerateInput, fmt.Errorf("constant leg")))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DEGENERATE_INPUT", body.Error.Code)
	assert.Equal(t, "constant leg", body.Error.Cause)
}

func TestError_OpaqueError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusInternalServerError, fmt.Errorf("boom"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code, "opaque errors must not leak internals")
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidParameter, http.StatusBadRequest},
		{core.ErrConfigInvalid, http.StatusBadRequest},
		{core.ErrInsufficientData, http.StatusUnprocessableEntity},
		{core.ErrDegenerateInput, http.StatusUnprocessableEntity},
		{core.ErrNotCointegrated, http.StatusUnprocessableEntity},
		{core.ErrDataUnavailable, http.StatusBadGateway},
		{core.ErrJobNotFound, http.StatusNotFound},
		{fmt.Errorf("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusForError(tc.err), "error %v", tc.err)
	}

	wrapped := core.WrapError(core.ErrInsufficientData, fmt.Errorf("only 3 bars"))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForError(wrapped))
}
