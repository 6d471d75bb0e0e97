// Package respond writes the `{success, message, data}` JSON envelope used by
// every endpoint.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Error maps err onto the taxonomy's status code. Internal errors are logged
// with detail and reported generically.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error) {
	status := apperr.Status(err)
	if apperr.IsInternal(err) {
		if logger != nil {
			logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		}
	} else if logger != nil {
		logger.Debugw("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	JSON(w, status, Envelope{Success: false, Message: apperr.Message(err)})
}

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("cuerpo de la petición vacío")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.ErrValidation, "cuerpo de la petición inválido", err)
	}
	return nil
}
