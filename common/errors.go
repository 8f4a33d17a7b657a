package common

import (
	"encoding/json"
	"net/http"

	"go-bank-ledger/logger"

	"github.com/sirupsen/logrus"
)

// AppError is the error body sent to clients. Err is logged, never sent.
type AppError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithKind sets the stable error kind reported to clients.
func (e *AppError) WithKind(kind string) *AppError {
	e.Kind = kind
	return e
}

func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		entry := logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"kind":           e.Kind,
			"internal_error": e.Err.Error(),
		})
		if e.Code >= http.StatusInternalServerError {
			entry.Error(e.Message)
		} else {
			entry.Info(e.Message)
		}
	}

	WriteJSON(w, e.Code, e)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response body")
	}
}
