// Package response standardizes the JSON bodies the API writes. Success
// payloads nest under "data", failures under "error", list pages carry
// a "meta" block alongside "data".
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

// ErrorBody is the failure payload nested under "error".
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, struct {
		Data any `json:"data"`
	}{data})
}

func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, struct {
		Data any `json:"data"`
	}{data})
}

func Collection(w http.ResponseWriter, data any, meta PaginationMeta) {
	write(w, http.StatusOK, struct {
		Data any            `json:"data"`
		Meta PaginationMeta `json:"meta"`
	}{data, meta})
}

func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, struct {
		Error ErrorBody `json:"error"`
	}{ErrorBody{Code: code, Message: message}})
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response body", "error", err)
	}
}
