package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("event %s not found", "E1")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
	assert.Equal(t, "event E1 not found", err.Error())
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(cause, CodeUnavailable, "fetch events")

	assert.True(t, Is(err, ErrUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fetch events: dial tcp: connection refused", err.Error())
}

func TestError_WrappedInFmtErrorf(t *testing.T) {
	err := fmt.Errorf("booking: %w", Conflict("event is full"))

	var domainErr *Error
	assert.True(t, As(err, &domainErr))
	assert.Equal(t, CodeConflict, domainErr.Code)
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusBadGateway},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_WithDetails(t *testing.T) {
	base := Validation("validation failed")
	withDetails := base.WithDetails(map[string]string{"guests": "is required"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"guests": "is required"}, withDetails.Details)
	assert.True(t, Is(withDetails, ErrValidation))
}
