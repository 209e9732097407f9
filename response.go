package sessiongate

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strings"
)

// responseEnvelope is the JSON shape of every action response. Exactly one of
// Data and Error is set.
type responseEnvelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Machine-readable error codes carried in the response envelope.
const (
	CodeMissingParameter   = "MISSING_PARAMETER"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeCookieMissing      = "COOKIE_MISSING"
	CodeInvalidCookie      = "INVALID_COOKIE"
	CodeSecretMismatch     = "SECRET_MISMATCH"
	CodeIPMismatch         = "IP_MISMATCH"
	CodeContextLocked      = "CONTEXT_LOCKED"
	CodeFlowDisabled       = "FLOW_DISABLED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeUnknownAction      = "UNKNOWN_ACTION"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingParameter):
		return CodeMissingParameter
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrSessionExpired):
		return CodeSessionExpired
	case errors.Is(err, ErrCookieMissing):
		return CodeCookieMissing
	case errors.Is(err, ErrInvalidCookie):
		return CodeInvalidCookie
	case errors.Is(err, ErrSecretMismatch):
		return CodeSecretMismatch
	case errors.Is(err, ErrIPMismatch):
		return CodeIPMismatch
	case errors.Is(err, ErrContextLocked):
		return CodeContextLocked
	case errors.Is(err, ErrFlowDisabled):
		return CodeFlowDisabled
	case errors.Is(err, ErrTokenInvalid):
		return CodeTokenInvalid
	case errors.Is(err, ErrUnknownAction):
		return CodeUnknownAction
	default:
		return CodeServiceUnavailable
	}
}

// errorStatus maps a flow error to the HTTP status of the AJAX surface.
// Missing parameters and unknown actions are client errors; tampering
// signals (a wrong secret cookie) and disabled flows are forbidden; all
// other flow outcomes ride a 200 so AJAX callers read the envelope, not the
// transport status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingParameter), errors.Is(err, ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, ErrSecretMismatch), errors.Is(err, ErrFlowDisabled), errors.Is(err, ErrTokenInvalid):
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(responseEnvelope{Data: data})
}

// WriteError renders a flow error as the standard JSON envelope with its
// mapped status and code. Exposed for middleware and custom routers.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(errorStatus(err))
	_ = json.NewEncoder(w).Encode(responseEnvelope{
		Error: publicMessage(err),
		Code:  errorCode(err),
	})
}

// publicMessage strips wrapped internals from infrastructure errors so Redis
// addresses and driver details never reach a client.
func publicMessage(err error) string {
	if errorCode(err) == CodeServiceUnavailable {
		return ErrServiceUnavailable.Error()
	}
	return err.Error()
}

// renderErrorPage writes the configured HTML error page for browser-facing
// flows, substituting the cause for the ERROR_MESSAGE placeholder.
func renderErrorPage(w http.ResponseWriter, template string, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(errorStatus(err))
	page := strings.ReplaceAll(template, "ERROR_MESSAGE", html.EscapeString(publicMessage(err)))
	_, _ = w.Write([]byte(page))
}
