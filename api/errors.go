package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type ErrorCode string

const (
	AlreadyExists        ErrorCode = "AlreadyExists"
	AlreadySubmitted     ErrorCode = "AlreadySubmitted"
	AlreadyVerified      ErrorCode = "AlreadyVerified"
	AuthError            ErrorCode = "AuthError"
	CaptchaInvalid       ErrorCode = "CaptchaInvalid"
	EmptyBody            ErrorCode = "EmptyBody"
	InputValidationError ErrorCode = "InputValidationError"
	InternalError        ErrorCode = "InternalError"
	InvalidBody          ErrorCode = "InvalidBody"
	InvalidCursor        ErrorCode = "InvalidCursor"
	LimitOutOfBounds     ErrorCode = "LimitOutOfBounds"
	NavigationBlocked    ErrorCode = "NavigationBlocked"
	NotFound             ErrorCode = "NotFound"
	StepIncomplete       ErrorCode = "StepIncomplete"
	Timeout              ErrorCode = "Timeout"
	UploadFailed         ErrorCode = "UploadFailed"
	ValidationFailed     ErrorCode = "ValidationFailed"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details []string  `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		logger.Error("failed to marshal response body", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
		jsonBody = []byte(`{"code": "InternalError", "message": "Internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonBody)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, code ErrorCode, message string) {
	writeJSON(w, logger, status, Error{Code: code, Message: message})
}

func writeInternalError(w http.ResponseWriter, logger *slog.Logger) {
	writeError(w, logger, http.StatusInternalServerError, InternalError, "Internal server error")
}

// readJSON decodes the request body into v. Bodies are already checked
// against the OpenAPI document by the time a handler runs, so failures here
// are unexpected.
func readJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		writeError(w, logger, http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warn("Invalid JSON body", slog.String("error", err.Error()))
		writeError(w, logger, http.StatusBadRequest, InvalidBody, "Invalid body")
		return false
	}

	return true
}
