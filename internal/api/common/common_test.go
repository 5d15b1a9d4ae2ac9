package common

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndValidateURLParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		paramValue string
		wantValue  string
		wantErrMsg string
	}{
		{name: "plain name", paramValue: "button", wantValue: "button"},
		{name: "dashes and dots", paramValue: "date-picker.v2", wantValue: "date-picker.v2"},
		{name: "url-encoded at symbol", paramValue: "ui%40button", wantValue: "ui@button"},
		{name: "url-encoded space only", paramValue: "%20", wantErrMsg: "name cannot be empty"},
		{name: "url-encoded tab only", paramValue: "%09", wantErrMsg: "name cannot be empty"},
		{name: "space in middle", paramValue: "date%20picker", wantErrMsg: "name cannot contain whitespace"},
		{name: "newline at end", paramValue: "button%0A", wantErrMsg: "name cannot contain whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			router := chi.NewRouter()
			router.Get("/{name}", func(_ http.ResponseWriter, r *http.Request) {
				called = true
				value, err := GetAndValidateURLParam(r, "name")
				if tt.wantErrMsg != "" {
					require.Error(t, err)
					assert.Equal(t, tt.wantErrMsg, err.Error())
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wantValue, value)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/"+tt.paramValue, nil))
			assert.True(t, called)
		})
	}

	t.Run("invalid encoding", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("name", "button%ZZ")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		_, err := GetAndValidateURLParam(req, "name")
		require.Error(t, err)
		assert.Equal(t, "invalid URL encoding in name", err.Error())
	})
}

func TestWriteErrorResponse(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteErrorResponse(rr, "Invalid credentials.", http.StatusForbidden)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Invalid credentials."}`, rr.Body.String())
}

func TestWriteNotFound(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteNotFound(rr, httptest.NewRequest(http.MethodGet, "/registry/public/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var body NotFoundResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "/registry/public/missing", body.Path)
	assert.Equal(t, InvalidURLMessage, body.Message)
}
