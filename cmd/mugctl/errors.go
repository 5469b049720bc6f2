package main

import (
	"errors"
	"fmt"

	"github.com/emberble/mugctl/internal/codec"
	"github.com/emberble/mugctl/internal/mug"
)

// FormatUserError renders driver errors for terminal output, keeping the
// three failure classes distinguishable: device unreachable, value
// rejected, and feature not supported.
func FormatUserError(err error) string {
	var transportErr *mug.TransportError
	if errors.As(err, &transportErr) {
		return fmt.Sprintf("device unreachable: %s", transportErr)
	}

	var encodingErr *codec.EncodingError
	if errors.As(err, &encodingErr) {
		return encodingErr.Error()
	}

	var payloadErr *codec.MalformedPayloadError
	if errors.As(err, &payloadErr) {
		return fmt.Sprintf("unexpected device response: %s", payloadErr)
	}

	var unsupportedErr *mug.UnsupportedAttributeError
	if errors.As(err, &unsupportedErr) {
		return unsupportedErr.Error()
	}

	return err.Error()
}
