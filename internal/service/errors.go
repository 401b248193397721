package service

import (
	"errors"
	"fmt"
	"net/http"
)

// CheckoutErrorCode enumerates the ways a checkout attempt can fail.
// Every external-call failure is captured and converted into exactly one
// of these; nothing propagates to the caller as a panic.
type CheckoutErrorCode string

const (
	CodeUnauthorized             CheckoutErrorCode = "UNAUTHORIZED"
	CodeMissingAddress           CheckoutErrorCode = "MISSING_ADDRESS"
	CodeCatalogMismatch          CheckoutErrorCode = "CATALOG_MISMATCH"
	CodeGatewayUnavailable       CheckoutErrorCode = "GATEWAY_UNAVAILABLE"
	CodeNoShippingAvailable      CheckoutErrorCode = "NO_SHIPPING_AVAILABLE"
	CodeSessionCreationFailed    CheckoutErrorCode = "SESSION_CREATION_FAILED"
	CodeTicketRegistrationFailed CheckoutErrorCode = "TICKET_REGISTRATION_FAILED"
	CodePersistenceFailed        CheckoutErrorCode = "PERSISTENCE_FAILED"
)

// CheckoutError is the structured failure of a checkout attempt
type CheckoutError struct {
	Code    CheckoutErrorCode
	Message string
	Cause   error
}

func (e *CheckoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CheckoutError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the failure code to a response status
func (e *CheckoutError) HTTPStatus() int {
	switch e.Code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeMissingAddress, CodeCatalogMismatch, CodeNoShippingAvailable:
		return http.StatusUnprocessableEntity
	case CodeGatewayUnavailable, CodeSessionCreationFailed, CodeTicketRegistrationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newCheckoutError(code CheckoutErrorCode, message string, cause error) *CheckoutError {
	return &CheckoutError{Code: code, Message: message, Cause: cause}
}

// AsCheckoutError extracts a CheckoutError from an error chain
func AsCheckoutError(err error) (*CheckoutError, bool) {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
