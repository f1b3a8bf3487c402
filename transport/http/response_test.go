package http

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kochabx/sessionkit/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinJSON(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"string data", "test data", `{"code":200,"msg":"success","data":"test data"}`},
		{"map data", map[string]string{"key": "value"}, `{"code":200,"msg":"success","data":{"key":"value"}}`},
		{"nil data", nil, `{"code":200,"msg":"success"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			GinJSON(c, tt.data)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestGinJSONStatus(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	GinJSONStatus(c, http.StatusCreated, gin.H{"id": "abc"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"code":201,"msg":"success","data":{"id":"abc"}}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	GinJSONStatus(c, http.StatusNoContent, nil)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestGinError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{
			name:   "kit error",
			err:    errors.NotFound("session not found"),
			status: http.StatusNotFound,
			want:   `{"code":404,"msg":"session not found"}`,
		},
		{
			name:   "wrapped with metadata",
			err:    errors.ServiceUnavailable("store unavailable").WithMetadata(map[string]string{"user_id": "u1"}).WithCause(stderrors.New("dial tcp")),
			status: http.StatusServiceUnavailable,
			want:   `{"code":503,"msg":"store unavailable","metadata":{"user_id":"u1"}}`,
		},
		{
			name:   "business code",
			err:    errors.New(10001, "custom"),
			status: http.StatusInternalServerError,
			want:   `{"code":10001,"msg":"custom"}`,
		},
		{
			name:   "standard error",
			err:    stderrors.New("secret internals"),
			status: http.StatusInternalServerError,
			want:   `{"code":500,"msg":"Internal Server Error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			GinError(c, tt.err)

			assert.True(t, c.IsAborted())
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
			assert.Len(t, c.Errors, 1)
		})
	}
}
