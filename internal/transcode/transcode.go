package transcode

import (
	"context"
	"fmt"
)

// Derivative is the output of a transcode: resized, re-encoded bytes plus the
// content type determined by the encoder (not inherited from the input).
type Derivative struct {
	Data        []byte
	ContentType string
}

// Transcoder resizes source bytes to exact target dimensions and re-encodes
// at the requested quality. Failures are terminal for the request: the same
// bytes fail the same way, so callers never retry.
type Transcoder interface {
	Transcode(ctx context.Context, data []byte, width, height, quality int) (Derivative, error)
}

// TranscodeError reports a rejected input or an internal encode failure.
type TranscodeError struct {
	Err error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode: %v", e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
