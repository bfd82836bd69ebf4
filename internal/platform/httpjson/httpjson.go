// Package httpjson maps domain errors and payloads onto HTTP responses so
// handlers stay thin.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "wattgrid/pkg/domain-errors"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Write renders v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError renders a coded domain error with the matching status.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	code := dErrors.CodeInternal
	message := "internal error"
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
	}
	Write(w, statusFor(code), errorBody{Error: message, Code: string(code)})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodePending:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
