package httpx

import (
	"net/http"

	"github.com/formdesk/intake/log"
)

// Will log an error, and send a JSON envelope with status 500 and a generic message
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	JSONError(w, r, http.StatusInternalServerError, "Internal server error")
}

// Will log a debug message, and send a JSON envelope with status 404
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any, msg string) {
	log.Debugf("%s: not found (%v)", code, id)
	JSONError(w, r, http.StatusNotFound, msg)
}

// Will log an error code at the given level, and send
// a JSON envelope with the given status and message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string) {
	log.Log(level, code+":", msg)
	JSONError(w, r, status, msg)
}

// Will log an error code at the given level, and send a JSON envelope with
// the given status, message and field-level details
func LogStatusDetails(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, details []FieldError) {
	log.Log(level, code+":", msg, details)
	JSONErrorDetails(w, r, status, msg, details)
}
