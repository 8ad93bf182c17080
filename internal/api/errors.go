package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kellerblick/storefront/internal/catalog"
	domainerrors "github.com/kellerblick/storefront/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// InvalidPayloadDetails describes a malformed catalog record.
type InvalidPayloadDetails struct {
	Record string            `json:"record" doc:"Kind of record: wine, event, page, facets or catalog"`
	Index  int               `json:"index" doc:"Position of the record, -1 when not applicable"`
	Fields map[string]string `json:"fields" doc:"Field path to problem"`
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			// Checked before domain errors: it unwraps to a bare sentinel.
			var payloadErr *catalog.ValidationError
			if errors.As(err, &payloadErr) {
				return &APIError{
					status:  http.StatusBadGateway,
					Code:    string(domainerrors.CodeUnavailable),
					Message: "catalog returned an invalid " + payloadErr.Record,
					Details: InvalidPayloadDetails{
						Record: payloadErr.Record,
						Index:  payloadErr.Index,
						Fields: payloadErr.Fields,
					},
				}
			}

			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			if errors.Is(err, context.DeadlineExceeded) {
				return &APIError{
					status:  http.StatusServiceUnavailable,
					Code:    string(domainerrors.CodeUnavailable),
					Message: "catalog did not respond in time",
				}
			}
		}

		// Huma's own request validation failures.
		var details []string
		for _, err := range errs {
			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				details = append(details, detail.Error())
			}
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return string(domainerrors.CodeUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}
