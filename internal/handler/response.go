// internal/handler/response.go
package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
)

type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Envelope is the shape of every response body.
type Envelope struct {
	Success    bool           `json:"success"`
	Data       any            `json:"data,omitempty"`
	Pagination map[string]int `json:"pagination,omitempty"`
	Error      *ErrorBody     `json:"error,omitempty"`
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Println("⚠️ failed to encode response:", err)
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

func WriteList(w http.ResponseWriter, data any, pagination map[string]int) {
	write(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: pagination})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind appErrors.Kind) int {
	switch kind {
	case appErrors.KindValidation:
		return http.StatusBadRequest
	case appErrors.KindNotFound:
		return http.StatusNotFound
	case appErrors.KindConflict:
		return http.StatusConflict
	case appErrors.KindInvalidState:
		return http.StatusUnprocessableEntity
	case appErrors.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, err error) {
	kind := appErrors.KindOf(err)
	status := StatusFor(kind)
	msg := err.Error()
	if status >= 500 {
		log.Println("❌", msg)
	}
	if kind == appErrors.KindUnknown {
		msg = "internal error"
	}
	// Keep messages to one line.
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	write(w, status, Envelope{Error: &ErrorBody{Kind: string(kind), Message: msg}})
}

// DecodeJSON reads a required JSON body; unknown fields are rejected.
func DecodeJSON(r *http.Request, v any) error {
	return decode(r, v, true)
}

// DecodeOptionalJSON is DecodeJSON that accepts an empty body.
func DecodeOptionalJSON(r *http.Request, v any) error {
	return decode(r, v, false)
}

func decode(r *http.Request, v any, required bool) error {
	var raw []byte
	if r.Body != nil {
		var err error
		raw, err = io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return appErrors.NewValidation("decode body", "read body: %v", err)
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if required {
			return appErrors.NewValidation("decode body", "request body is required")
		}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return appErrors.NewValidation("decode body", "invalid body: %v", err)
	}
	return nil
}
