package httpx

import (
	"net/http"

	"github.com/go-chi/render"
)

// FieldError is one entry of a structural-validation error list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the wire shape of every API response.
type Envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, Envelope{Success: true, Data: data})
}

func JSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: false, Error: msg})
}

func JSONErrorDetails(w http.ResponseWriter, r *http.Request, status int, msg string, details []FieldError) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: false, Error: msg, Details: details})
}
