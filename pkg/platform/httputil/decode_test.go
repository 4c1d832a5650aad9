package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docverify/pkg/domain-errors"
)

type plainRequest struct {
	Name string `json:"name"`
}

type checkedRequest struct {
	Name       string `json:"name"`
	normalized bool
	sanitized  bool
}

func (r *checkedRequest) Sanitize()  { r.sanitized = true }
func (r *checkedRequest) Normalize() { r.normalized = true; r.Name = strings.TrimSpace(r.Name) }
func (r *checkedRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type domainCheckedRequest struct {
	Kind string `json:"kind"`
}

func (r *domainCheckedRequest) Validate() error {
	if r.Kind == "" {
		return dErrors.New(dErrors.CodeBadRequest, "kind is required")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDecodeJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"Ramesh"}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[plainRequest](w, req, discardLogger(), ctx, "req-1")

		require.True(t, ok)
		assert.Equal(t, "Ramesh", result.Name)
	})

	t.Run("malformed json is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{nope`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[plainRequest](w, req, discardLogger(), ctx, "req-1")

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeErrorBody(t, w)["error"])
	})

	t.Run("oversized body is a validation error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"`+strings.Repeat("x", 64)+`"}`))
		w := httptest.NewRecorder()
		req.Body = http.MaxBytesReader(w, req.Body, 16)

		_, ok := DecodeJSON[plainRequest](w, req, discardLogger(), ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "request body too large", decodeErrorBody(t, w)["error_description"])
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	ctx := context.Background()

	t.Run("runs sanitize normalize validate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"  Asha  "}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[checkedRequest](w, req, discardLogger(), ctx, "req-1")

		require.True(t, ok)
		assert.True(t, result.sanitized)
		assert.True(t, result.normalized)
		assert.Equal(t, "Asha", result.Name)
	})

	t.Run("plain validation errors become validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"   "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[checkedRequest](w, req, discardLogger(), ctx, "req-1")

		assert.False(t, ok)
		body := decodeErrorBody(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "name is required", body["error_description"])
	})

	t.Run("domain errors keep their code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[domainCheckedRequest](w, req, discardLogger(), ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeErrorBody(t, w)["error"])
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
		body   string
	}{
		{dErrors.CodeNotFound, http.StatusNotFound, "not_found"},
		{dErrors.CodeForbidden, http.StatusForbidden, "forbidden"},
		{dErrors.CodeConflict, http.StatusConflict, "conflict"},
		{dErrors.CodeRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{dErrors.CodeUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "message"))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.body, decodeErrorBody(t, w)["error"])
		})
	}

	t.Run("unknown errors are internal and leak nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: password authentication failed"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeErrorBody(t, w)
		assert.Equal(t, "internal_error", body["error"])
		assert.Empty(t, body["error_description"])
	})
}
