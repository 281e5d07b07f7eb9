package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSourceExtraction):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	Constraint string `json:"constraint,omitempty"`
}

func errorBody(err error) errorResponse {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return errorResponse{Error: vErr.Error(), Field: vErr.Field, Constraint: vErr.Constraint}
	}
	return errorResponse{Error: err.Error()}
}
