package weberr

import (
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, msg string, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{msg},
		status,
	))

	return Wrap(e, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(err, "the resource could not be found", http.StatusNotFound, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(err, "not authorized to access resource", http.StatusUnauthorized, opts...)
}

func Forbidden(err error, opts ...Opt) error {
	return NewError(err, "access to the resource is forbidden", http.StatusForbidden, opts...)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

// BadRequest exposes err's message to the client.
func BadRequest(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusBadRequest, opts...)
}

func UnprocessableEntity(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusUnprocessableEntity, opts...)
}

func TooManyRequests(err error, opts ...Opt) error {
	return NewError(err, "rate limit exceeded, retry later", http.StatusTooManyRequests, opts...)
}

func Unavailable(err error, opts ...Opt) error {
	return NewError(err, "service unavailable", http.StatusServiceUnavailable, opts...)
}
