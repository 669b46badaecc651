package http

import (
	"errors"
	"net/http"

	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/pkg/circuitbreaker"
	"github.com/skillswap/skillswap-hub/pkg/logger"
)

// statusForError maps a domain error kind to an HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrInsufficientAnswers):
		return http.StatusUnprocessableEntity, "insufficient_answers"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_input"
	case shared.IsUnauthorized(err):
		return http.StatusForbidden, "forbidden"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsInvalidTransition(err):
		return http.StatusConflict, "invalid_transition"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrConcurrentModification), errors.Is(err, shared.ErrLockNotAcquired):
		return http.StatusConflict, "conflict"
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeDomainError answers with the mapped status. Client errors carry the
// domain message; server errors are logged and hidden.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.Operation(op),
			logger.Err(err),
		)
		writeJSONError(w, status, code, "the request could not be completed")
		return
	}
	writeJSONError(w, status, code, clientMessage(err))
}

// clientMessage prefers the innermost domain error message.
func clientMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
