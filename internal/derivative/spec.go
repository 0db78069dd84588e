package derivative

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultQuality is applied when the inbound request omits quality.
const DefaultQuality = 80

// keyNamespace prefixes every derivative key in the object store so derivative
// objects can never collide with original assets.
const keyNamespace = "cache"

// Spec is the canonical, validated description of a requested derivative.
// Two Specs with the same fields always derive the same cache key.
type Spec struct {
	SourcePath string
	Width      int
	Height     int
	Quality    int
}

// ValidationError reports a malformed or missing transform parameter.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Reason)
}

// ParseSpec validates raw query parameters and normalizes them into a Spec.
//
// path is required and gets a leading slash if missing, so the derived key is
// always namespace/dimensions/path with unambiguous separators. width and
// height must be positive integers. quality defaults to DefaultQuality and
// must be in [1,100] when present.
func ParseSpec(q url.Values) (Spec, error) {
	path := q.Get("path")
	if path == "" {
		return Spec{}, &ValidationError{Param: "path", Reason: "is required"}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	width, err := parsePositiveInt(q, "width")
	if err != nil {
		return Spec{}, err
	}
	height, err := parsePositiveInt(q, "height")
	if err != nil {
		return Spec{}, err
	}

	quality := DefaultQuality
	if raw := q.Get("quality"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Spec{}, &ValidationError{Param: "quality", Reason: "must be an integer"}
		}
		if n < 1 || n > 100 {
			return Spec{}, &ValidationError{Param: "quality", Reason: "must be between 1 and 100"}
		}
		quality = n
	}

	return Spec{
		SourcePath: path,
		Width:      width,
		Height:     height,
		Quality:    quality,
	}, nil
}

func parsePositiveInt(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, &ValidationError{Param: name, Reason: "is required"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Param: name, Reason: "must be an integer"}
	}
	if n <= 0 {
		return 0, &ValidationError{Param: name, Reason: "must be positive"}
	}
	return n, nil
}

// CacheKey derives the stable object-store key for this Spec:
//
//	cache/width=<W>,height=<H>,quality=<Q><path>
//
// The format is a contract with already-published objects; changing it
// orphans every derivative written so far.
func (s Spec) CacheKey() string {
	dims := []string{
		"width=" + strconv.Itoa(s.Width),
		"height=" + strconv.Itoa(s.Height),
		"quality=" + strconv.Itoa(s.Quality),
	}
	return keyNamespace + "/" + strings.Join(dims, ",") + s.SourcePath
}
