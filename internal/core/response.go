package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"carbonview/internal/types"
)

// internalErrorBody is the fixed body written for every error that is not a
// recognized validation or partial-data kind. The wording is part of the
// public contract and must not change.
const internalErrorBody = "Internal Server Error"

// JSON writes a JSON response with the given status code and data. If
// marshalling fails, it falls back to the generic 500 text response.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		// Marshalling our own response types should never fail; treat it as
		// any other unclassified error.
		Text(w, http.StatusInternalServerError, internalErrorBody)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Text writes a plain-text response with the given status code and body.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Error writes an error response to the client. It inspects the error chain
// with errors.As and dispatches on the typed error kind:
//
//   - footprint/recommendations validation errors: 400, message verbatim
//   - partial-data errors: 416, message verbatim
//   - anything else: 500 with a fixed generic body
//
// Internal error details (wrapped errors, messages of unclassified errors)
// are never exposed to the client. Callers are expected to have logged the
// error before handing it here.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code.IsClientVisible() {
		Text(w, appErr.HTTPStatus(), appErr.Message)
		return
	}

	Text(w, http.StatusInternalServerError, internalErrorBody)
}
