package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrConflict,
		ErrUnprocessable, ErrInternal, ErrServiceUnavail, ErrRateLimited,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j], "sentinels %d and %d", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	withInner := &AppError{Code: "INTERNAL_ERROR", Message: "broke", Err: fmt.Errorf("redis down")}
	assert.Equal(t, "INTERNAL_ERROR: broke: redis down", withInner.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "product 7 not found"}
	assert.Equal(t, "NOT_FOUND: product 7 not found", bare.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		status   int
		code     string
		sentinel error
	}{
		{"not found", NotFound("product", "7"), http.StatusNotFound, "NOT_FOUND", ErrNotFound},
		{"invalid input", InvalidInput("bad sort"), http.StatusBadRequest, "INVALID_INPUT", ErrInvalidInput},
		{"conflict", Conflict("already favorite"), http.StatusConflict, "CONFLICT", ErrConflict},
		{"unprocessable", Unprocessable("EMPTY_BASKET", "basket is empty"), http.StatusUnprocessableEntity, "EMPTY_BASKET", ErrUnprocessable},
		{"unavailable", ServiceUnavailable("catalog", errors.New("dial tcp")), http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", ErrServiceUnavail},
		{"rate limited", RateLimited(), http.StatusTooManyRequests, "RATE_LIMITED", ErrRateLimited},
		{"internal", Internal(ErrInternal), http.StatusInternalServerError, "INTERNAL_ERROR", ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "product 42 not found", NotFound("product", "42").Message)
}

func TestServiceUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("circuit breaker is open")
	err := ServiceUnavailable("catalog", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(Wrap(ErrNotFound, "get favorite")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Wrap(ErrInvalidInput, "parse")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Wrap(ErrConflict, "add")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(Wrap(ErrUnprocessable, "checkout")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Wrap(ErrServiceUnavail, "catalog")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "load basket")
	assert.Equal(t, "load basket: resource not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}
