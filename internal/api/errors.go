package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/rrdarch/pkg/rrd"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrBodyTooLarge   = errors.New("request body too large")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps an error to its HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, rrd.ErrUnknownArch),
		errors.Is(err, rrd.ErrArchMismatch):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, rrd.ErrFormat), errors.Is(err, rrd.ErrAlignment):
		return http.StatusUnprocessableEntity, "invalid_rrd_error"
	case errors.Is(err, rrd.ErrIntegrity):
		return http.StatusInternalServerError, "integrity_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
