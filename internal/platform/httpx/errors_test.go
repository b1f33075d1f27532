package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockgrid/stockgrid/internal/shared"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		shared.Validation("quantity", "quantity must be positive"): http.StatusBadRequest,
		shared.NotFound("assignment", "no stock at source"):         http.StatusNotFound,
		fmt.Errorf("tx: %w", shared.ErrConflict):                    http.StatusConflict,
		&shared.InsufficientStockError{Available: 1, Requested: 2}:  http.StatusUnprocessableEntity,
		&shared.CapacityError{Total: 1, Requested: 2}:               http.StatusUnprocessableEntity,
		shared.ErrGenerationExhausted:                               http.StatusServiceUnavailable,
		errors.New("boom"):                                          http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestRespondErrorInsufficientStock(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, &shared.InsufficientStockError{Available: 40, Requested: 50})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Available)
	require.Equal(t, 40, *body.Available)
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password authentication failed"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.False(t, strings.Contains(rec.Body.String(), "password"))
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","bogus":1}`))
	var target struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrBadRequest)
}
