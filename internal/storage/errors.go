package storage

import "fmt"

// OriginErrorKind distinguishes a permanently missing asset from a transient
// transport problem. The HTTP boundary collapses both to a server error, but
// the kinds are logged and counted separately.
type OriginErrorKind string

const (
	KindOriginNotFound    OriginErrorKind = "ORIGIN_NOT_FOUND"
	KindOriginUnavailable OriginErrorKind = "ORIGIN_UNAVAILABLE"
)

// OriginError reports a failed origin fetch.
type OriginError struct {
	Kind   OriginErrorKind
	Path   string
	Status int
	Err    error
}

func (e *OriginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("origin fetch %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("origin fetch %s: %s (status %d)", e.Path, e.Kind, e.Status)
}

func (e *OriginError) Unwrap() error { return e.Err }

// PublishError reports a failed derivative write. The write is an idempotent
// overwrite, so a later identical request can safely attempt it again.
type PublishError struct {
	Key    string
	Status int
	Err    error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("publish %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("publish %s: store returned status %d", e.Key, e.Status)
}

func (e *PublishError) Unwrap() error { return e.Err }
