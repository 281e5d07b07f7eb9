package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx answer from Ollama.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, e.Body)
}

// Overload and gateway statuses are worth another attempt; anything else
// (bad request, missing model) will fail the same way again.
func (e *HTTPStatusError) retryable() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	var statusErr *HTTPStatusError
	var netErr net.Error
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case errors.As(err, &statusErr):
		// Client errors say nothing about server health.
		retry := statusErr.retryable()
		return resilience.ErrorClassification{Retryable: retry, RecordFailure: retry}
	case errors.As(err, &netErr):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// wrapModelError maps transport failures onto domain kinds. An open breaker,
// an unreachable server or a missing model is ErrModelUnavailable; other
// retryable failures are ErrTemporary.
func wrapModelError(operation string, err error) error {
	var statusErr *HTTPStatusError
	var netErr net.Error
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrModelUnavailable), domain.IsKind(err, domain.ErrTemporary):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case resilience.IsCircuitOpen(err):
		return domain.WrapError(domain.ErrModelUnavailable, operation, err)
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return domain.WrapError(domain.ErrModelUnavailable, operation, err)
	case errors.As(err, &netErr) && !netErr.Timeout():
		return domain.WrapError(domain.ErrModelUnavailable, operation, err)
	case classifyOllamaError(err).Retryable:
		return domain.WrapError(domain.ErrTemporary, operation, err)
	default:
		return err
	}
}
