package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		status   int
	}{
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("donation point 42: %w", ErrNotFound),
			category: CategoryNotFound,
			status:   http.StatusNotFound,
		},
		{
			name:     "deadline exceeded",
			err:      fmt.Errorf("failed to list points: %w", context.DeadlineExceeded),
			category: CategoryTimeout,
			status:   http.StatusGatewayTimeout,
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("disk I/O error"),
			category: CategoryInternal,
			status:   http.StatusInternalServerError,
		},
		{
			name:     "existing app error",
			err:      NewValidationError("bad id", nil),
			category: CategoryValidation,
			status:   http.StatusBadRequest,
		},
		{
			name:     "wrapped app error",
			err:      fmt.Errorf("handler: %w", NewRateLimitError(time.Second)),
			category: CategoryRateLimit,
			status:   http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
		})
	}

	assert.Nil(t, ToAppError(nil))
}

func TestAppErrorMessage(t *testing.T) {
	err := NewValidationError("invalid point id", nil)
	assert.Equal(t, "[VALIDATION_ERROR] invalid point id", err.Error())
	assert.Equal(t, errbuilder.CodeInvalidArgument, err.ErrCode())

	cause := fmt.Errorf("connection refused")
	internal := NewInternalError("Failed to load points", cause)
	assert.Equal(t, "[INTERNAL_ERROR] Failed to load points: connection refused", internal.Error())
	assert.ErrorIs(t, internal, cause)
}

func TestBody(t *testing.T) {
	body := NewInternalError("Failed to compute statistics", fmt.Errorf("no such table")).Body()
	assert.Equal(t, "Failed to compute statistics", body.Error)
	assert.Equal(t, "no such table", body.Details)
	assert.Equal(t, "internal", body.Code)

	body = NewValidationErrorWithMap(map[string]string{"nome": "is required"}).Body()
	assert.Equal(t, "Validation failed", body.Error)
	assert.Equal(t, map[string]string{"nome": "is required"}, body.Details)
}

func TestRespondAndErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler(), RecoveryHandler())
	router.GET("/respond", func(c *gin.Context) {
		Respond(c, fmt.Errorf("query failed: %w", fmt.Errorf("database is locked")), "Failed to compute needs ranking")
	})
	router.GET("/attached", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("point 9: %w", ErrNotFound))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/respond", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to compute needs ranking","details":"query failed: database is locked","code":"internal"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attached", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Resource not found","details":"point 9: resource not found","code":"not_found"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error","code":"internal"}`, w.Body.String())
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(fmt.Errorf("x: %w", ErrNotFound)))
	assert.False(t, IsRetryableError(NewValidationError("bad", nil)))
	assert.True(t, IsRetryableError(NewExternalAPIError("Google Maps", fmt.Errorf("503"))))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.False(t, IsRetryableError(context.Canceled))
}
