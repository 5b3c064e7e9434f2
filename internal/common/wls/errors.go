package wls

import (
	"errors"
	"fmt"
	"strings"

	apperrors "lead-workers/internal/common/errors"
)

// RemoteError is an HTTP error status returned by the lead service.
type RemoteError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote error %d: %s", e.Operation, e.StatusCode, e.Message)
}

// FaultError is a SOAP fault returned by the lead service.
type FaultError struct {
	Code       string `xml:"faultcode"`
	Message    string `xml:"faultstring"`
	Actor      string `xml:"faultactor"`
	Detail     string `xml:"detail"`
	Operation  string `xml:"-"`
	StatusCode int    `xml:"-"`
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s: soap fault %s: %s", e.Operation, e.Code, e.Message)
}

// IsServerError reports whether err is a 5xx response or a server-side fault.
func IsServerError(err error) bool {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.StatusCode >= 500
	}
	var fault *FaultError
	if errors.As(err, &fault) {
		return strings.HasSuffix(fault.Code, "Server") || fault.StatusCode >= 500
	}
	return false
}

// AsTransportFailure converts a remote call error into TRANSPORT_FAILURE. Errors that
// already carry a code are returned unchanged. Client-side faults and 4xx statuses are
// not retryable; server errors and network failures are.
func AsTransportFailure(operation string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.CodeOf(err) != "" {
		return err
	}

	stdErr := apperrors.NewTransportFailureError(operation, err)
	var remoteErr *RemoteError
	var fault *FaultError
	if errors.As(err, &remoteErr) || errors.As(err, &fault) {
		stdErr.Retryable = IsServerError(err)
	}
	return stdErr
}
