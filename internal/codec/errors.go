package codec

import "fmt"

// MalformedPayloadError reports a characteristic payload whose length does
// not match the attribute's fixed wire width. It is fatal to the single read
// it came from and never corrupts previously decoded state.
type MalformedPayloadError struct {
	Attribute string
	Want      int
	Got       int
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: expected %d bytes, got %d", e.Attribute, e.Want, e.Got)
}

// EncodingError reports a value outside the attribute's valid domain. It is
// raised before any write is attempted.
type EncodingError struct {
	Attribute string
	Reason    string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode %s: %s", e.Attribute, e.Reason)
}
