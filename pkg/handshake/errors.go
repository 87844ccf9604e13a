package handshake

import (
	"errors"
	"fmt"

	"github.com/yly97/dtlsc/pkg/layer"
)

var (
	// ErrClosed 连接已关闭
	ErrClosed = errors.New("connection closed")

	errWrongState             = errors.New("message received in wrong state")
	errDuplicateCookie        = errors.New("duplicate cookie")
	errUnsupportedParameter   = errors.New("unsupported handshake parameter")
	errSignatureMismatch      = errors.New("signature mismatch")
	errNoPublicKey            = errors.New("certificate has no usable public key")
	errFragmentOutOfRange     = errors.New("fragment out of range")
	errSequenceNumberOverflow = errors.New("sequence number overflow")
)

// AlertError 对端发来的致命Alert，会终止连接
type AlertError struct {
	alert *layer.Alert
}

func wrapAlertError(alert *layer.Alert) *AlertError {
	return &AlertError{alert: alert}
}

func (e *AlertError) Error() string {
	return fmt.Sprintf("Alert %s %s", e.alert.Level, e.alert.Description)
}

func (e *AlertError) Alert() *layer.Alert {
	return e.alert
}
