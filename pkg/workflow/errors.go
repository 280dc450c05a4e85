package workflow

import (
	"errors"
	"fmt"
)

// User-facing rejection messages
const (
	MsgMissingMnemonic          = "missing mnemonic"
	MsgConnectWalletsFirst      = "connect wallets first"
	MsgSelectSellAsset          = "select sell asset"
	MsgSelectBuyAsset           = "select buy asset"
	MsgInvalidSellAmount        = "enter a valid sell amount"
	MsgConnectSourceWallet      = "connect source wallet"
	MsgConnectDestinationWallet = "connect destination wallet"
	MsgNoRouteFound             = "no route found for the selected assets"
	MsgMissingRoute             = "missing route, fetch quote first"
	MsgWalletsChanged           = "wallets changed while quoting, fetch quote again"
)

// ErrOperationInFlight is returned when an operation is invoked while a previous
// call of the same operation has not finished.
var ErrOperationInFlight = errors.New("operation already in progress")

// ValidationError is a local input or precondition failure. The session is untouched.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError wraps a failed collaborator call. The session is untouched and
// the operation can be retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransport reports whether err is a TransportError
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

func invalid(op operation, message string) error {
	return &ValidationError{Op: string(op), Message: message}
}

func transport(op operation, err error) error {
	return &TransportError{Op: string(op), Err: err}
}
