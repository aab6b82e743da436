package commons

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "stockroom/internal/errors"
)

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteValidationError(w http.ResponseWriter, traceID, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		TraceID:   traceID,
		Status:    http.StatusBadRequest,
		Code:      "VALIDATION_ERROR",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}, logger)
}

// WriteError maps an application error to its HTTP status. Unknown errors are
// logged and reported as 500 without their message.
func WriteError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	status, code, message := http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"

	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, traceID, ve.Message, logger, ve.Details...)
		return
	}

	switch {
	case isInvalidArgument(err):
		status, code, message = http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()
	case isNotFound(err):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	case isConflict(err):
		status, code, message = http.StatusConflict, "CONFLICT", err.Error()
	case isDeadlock(err):
		status, code, message = http.StatusConflict, "DEADLOCK", err.Error()
	default:
		logger.Error("unexpected error", zap.String("traceId", traceID), zap.Error(err))
	}

	WriteJSON(w, status, ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}, logger)
}

func isInvalidArgument(err error) bool {
	_, ok := apperrors.IsInvalidArgumentError(err)
	return ok
}

func isNotFound(err error) bool {
	_, ok := apperrors.IsNotFoundError(err)
	return ok
}

func isConflict(err error) bool {
	_, ok := apperrors.IsConflictError(err)
	return ok
}

func isDeadlock(err error) bool {
	_, ok := apperrors.IsDeadlockError(err)
	return ok
}
