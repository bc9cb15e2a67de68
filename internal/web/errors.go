package web

// errors.go maps errors to HTTP responses.
//
// Every error response:
//   - is logged server-side with the technical error and the request id
//   - carries the user-facing message and code from core.MapError
//   - hides the technical text of errors that have no mapping
//   - uses a status derived from the error type, not from the handler
//
// Row-level failures never reach this file: they are part of a 200/207
// import result.

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/secops/internal/core"
	"github.com/JonMunkholm/secops/internal/logging"
)

// errInvalidRequest marks request bodies that could not be decoded.
var errInvalidRequest = errors.New("invalid request")

// ErrorResponse is the JSON body of every error response.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its mapped user message.
// Errors with no mapping only expose the generic message; the technical
// text stays in the log.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	userErr := core.NewUserError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", userErr.Technical.Error(),
		"code", userErr.User.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}

	detail := userErr.Error()
	if core.IsUserFacing(err) {
		detail = err.Error()
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   detail,
		Message: userErr.User.Message,
		Action:  userErr.User.Action,
		Code:    userErr.User.Code,
	})
}

// statusFor chooses the HTTP status of a run-scoped error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var snapErr *core.SnapshotLoadError

	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, core.ErrUnknownKind),
		errors.Is(err, core.ErrInvalidMode),
		errors.Is(err, core.ErrNoRows),
		errors.Is(err, core.ErrTooManyRows):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyRuns), errors.As(err, &snapErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// invalidRequest wraps a body decoding failure.
func invalidRequest(err error) error {
	return fmt.Errorf("%w: %w", errInvalidRequest, err)
}
