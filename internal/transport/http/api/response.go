package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UseNumericDecimals makes day and hour amounts encode as JSON numbers
// instead of strings. It flips a process-wide shopspring setting, so call it
// once from main before anything is encoded.
func UseNumericDecimals() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteJSON encodes any payload. Envelope is used by /api/v1; cron endpoints
// write their own flat shapes.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("write json failed", zap.Error(err))
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

// JobError is the body cron endpoints return on failure.
type JobError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func FailJob(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, JobError{Error: code, Message: message})
}
