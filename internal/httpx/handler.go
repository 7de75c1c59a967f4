// Package httpx lets handlers return errors which are rendered as
// JSON error bodies with an appropriate status code.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-json-experiment/json"
	"golang.org/x/exp/slog"
)

// Error is a convenience function for returning an error with an associated HTTP status code.
func Error(code int, err error) error {
	return &StatusError{code, err}
}

// StatusError represents an error with an associated HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

func (se *StatusError) Error() string {
	return se.Err.Error()
}

func (se *StatusError) Unwrap() error {
	return se.Err
}

// Status returns the HTTP status code.
func (se *StatusError) Status() int {
	return se.Code
}

// Logger is implemented by handler environments.
type Logger interface {
	Log() *slog.Logger
}

// HandlerFunc adapts a function that returns an error to an http.HandlerFunc.
// Errors which are not a *StatusError are reported as 500 Internal Server Error
// without exposing their text to the client.
func HandlerFunc[E Logger](envFn func(r *http.Request) E, fn func(E, http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := envFn(r)
		err := fn(env, w, r)
		if err == nil {
			return
		}
		code, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
		if se := new(StatusError); errors.As(err, &se) {
			code, msg = se.Status(), se.Error()
		}
		env.Log().Info("http error", "method", r.Method, "path", r.URL.Path, "status", code, "err", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		json.MarshalFull(w, map[string]any{
			"error": msg,
		})
	}
}
