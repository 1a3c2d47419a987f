package salesapi

import (
	"context"
	"errors"
	"fmt"
)

// MsgNoData is reported for every non-2xx dashboard response, whatever the cause.
const MsgNoData = "No data for this company and date range"

var errNullDirectory = errors.New("company list is null")

// ErrorKind classifies client failures for callers that keep them in state.
type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
	KindCanceled  ErrorKind = "canceled"
)

// StatusError reports a non-2xx upstream response. The body is never parsed.
type StatusError struct {
	Endpoint   string
	StatusCode int
	message    string
}

func (e *StatusError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("salesapi: %s returned status %d", e.Endpoint, e.StatusCode)
}

// DecodeError reports a 2xx response whose body could not be parsed or validated.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("salesapi: malformed %s payload: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind maps an error returned by Client to its ErrorKind.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return KindStatus
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return KindDecode
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindTransport
}
