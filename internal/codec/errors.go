package codec

import (
	"errors"
	"fmt"
)

// ErrNoEncoder is wrapped by EncodeError when the target media type has no
// registered encoder.
var ErrNoEncoder = errors.New("no encoder for media type")

// DecodeError reports that a file could not be parsed as an image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that a decoded image could not be encoded to the
// requested media type.
type EncodeError struct {
	Name      string
	MediaType string
	Err       error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s as %s: %v", e.Name, e.MediaType, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
