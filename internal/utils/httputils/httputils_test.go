package httputils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		ImageURL string `json:"image_url"`
	}

	t.Run("valid payload", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{"image_url":"https://example.com/a.jpg"}`))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		require.NoError(t, DecodeJSON(r, &p))
		assert.Equal(t, "https://example.com/a.jpg", p.ImageURL)
	})

	t.Run("charset suffix accepted", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var p payload
		assert.NoError(t, DecodeJSON(r, &p))
	})

	t.Run("wrong content type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")

		var p payload
		err := DecodeJSON(r, &p)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnsupportedMediaType, httpErr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{"image_url":`))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		err := DecodeJSON(r, &p)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})
}

func TestValidateMethod(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/match", nil)

	err := ValidateMethod(r, http.MethodPost)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusMethodNotAllowed, httpErr.Code)

	r = httptest.NewRequest(http.MethodPost, "/match", nil)
	assert.NoError(t, ValidateMethod(r, http.MethodPost))
}

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, JSONResponse(w, http.StatusOK, map[string]int{"total": 3}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"total":3}`, w.Body.String())
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, JSONError(w, http.StatusBadGateway, "upstream failure"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"upstream failure"}`, w.Body.String())
}

func TestSuccessResponse(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, SuccessResponse(w, "match completed", map[string]string{"description": "a calm sunset"}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, "success", decoded["status"])
	assert.Equal(t, "match completed", decoded["message"])
	assert.Equal(t, map[string]any{"description": "a calm sunset"}, decoded["data"])
}

func TestHandleError(t *testing.T) {
	t.Run("http error keeps code", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, &HTTPError{Code: http.StatusNotFound, Message: "no such image"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"no such image"}`, w.Body.String())
	})

	t.Run("wrapped http error keeps code", func(t *testing.T) {
		w := httptest.NewRecorder()
		wrapped := fmt.Errorf("handling request: %w", &HTTPError{Code: http.StatusBadRequest, Message: "bad payload"})
		HandleError(w, wrapped)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown error becomes 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, fmt.Errorf("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
