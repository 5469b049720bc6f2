package mug

import (
	"fmt"

	"github.com/emberble/mugctl/internal/protocol"
)

// TransportError reports a connect, pair, read or write failure surfaced by
// the platform BLE layer. The underlying error is preserved for errors.Is
// and errors.As.
type TransportError struct {
	Op             string
	Characteristic protocol.Characteristic
	Err            error
}

func (e *TransportError) Error() string {
	if e.Characteristic != 0 {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Characteristic, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnsupportedAttributeError reports an operation requested on a device
// variant that lacks the capability.
type UnsupportedAttributeError struct {
	Attribute protocol.Attribute
	Model     string
}

func (e *UnsupportedAttributeError) Error() string {
	return fmt.Sprintf("attribute %q is not supported by model %q", e.Attribute, e.Model)
}
