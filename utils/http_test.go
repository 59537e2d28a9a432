package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("writes status and body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := WriteJSON(rec, 201, map[string]string{"id": "abc"})
		require.NoError(t, err)
		assert.Equal(t, 201, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":"abc"}`, rec.Body.String())
	})

	t.Run("nil data writes no body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := WriteJSON(rec, 204, nil)
		require.NoError(t, err)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteOK(rec, map[string]string{"status": "healthy"}))
	assert.Equal(t, 200, rec.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Data)
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(rec *httptest.ResponseRecorder) error
		wantStatus int
		wantError  string
	}{
		{
			name:       "bad request",
			write:      func(rec *httptest.ResponseRecorder) error { return WriteBadRequest(rec, "missing image", nil) },
			wantStatus: 400,
			wantError:  "bad_request",
		},
		{
			name:       "unauthorized default message",
			write:      func(rec *httptest.ResponseRecorder) error { return WriteUnauthorized(rec, "") },
			wantStatus: 401,
			wantError:  "unauthorized",
		},
		{
			name:       "forbidden",
			write:      func(rec *httptest.ResponseRecorder) error { return WriteForbidden(rec, "nope") },
			wantStatus: 403,
			wantError:  "forbidden",
		},
		{
			name:       "not found",
			write:      func(rec *httptest.ResponseRecorder) error { return WriteNotFound(rec, "") },
			wantStatus: 404,
			wantError:  "not_found",
		},
		{
			name: "too many requests",
			write: func(rec *httptest.ResponseRecorder) error {
				return WriteTooManyRequests(rec, "", map[string]interface{}{"limit": 60})
			},
			wantStatus: 429,
			wantError:  "rate_limit_exceeded",
		},
		{
			name:       "internal server error",
			write:      func(rec *httptest.ResponseRecorder) error { return WriteInternalServerError(rec, "") },
			wantStatus: 500,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, tt.write(rec))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}
