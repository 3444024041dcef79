package gateway

import (
	"errors"
	"fmt"

	"mincadmin/internal/domain/record"
)

var ErrBadResponse = errors.New("unexpected response from server")

// NetworkError is a transport failure: the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is a 4xx rejection of the request by the server.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected (status %d)", e.Status)
	}
	return e.Message
}

// VersionConflictError is returned by Update when the token is stale.
// Token is the current token reported by the server, if any.
type VersionConflictError struct {
	Token   string
	Message string
}

func (e *VersionConflictError) Error() string {
	if e.Message == "" {
		return record.ErrVersionConflict.Error()
	}
	return e.Message
}

func (e *VersionConflictError) Unwrap() error { return record.ErrVersionConflict }

// ServerError is a 5xx response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.Status)
	}
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// ResponseError is a body that could not be decoded. Body holds the raw text.
type ResponseError struct {
	Status int
	Body   string
	Err    error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%v (status %d): %s", ErrBadResponse, e.Status, e.Body)
}

func (e *ResponseError) Unwrap() []error { return []error{ErrBadResponse, e.Err} }
