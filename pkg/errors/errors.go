package errors

import (
	"errors"
	"fmt"
)

// Error codes shared across the payment and form subsystems.
const (
	CodeAuthFailed       = "auth_failed"
	CodeMalformedPayload = "malformed_payload"
	CodeMissingData      = "missing_data"
	CodeStoreError       = "store_error"
	CodeGatewayError     = "gateway_error"
)

type E struct {
	Code    string
	Message string
	Err     error
}

func (e E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e E) Unwrap() error {
	return e.Err
}

func Wrap(code, msg string, err error) error {
	return E{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the first E in err's chain, empty string otherwise.
func CodeOf(err error) string {
	var e E
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}
