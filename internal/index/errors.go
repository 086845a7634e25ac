package index

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolUnavailable is returned by a Parser when the external indexing
	// tool cannot be started. It is reported once and never as a diagnostic.
	ErrToolUnavailable = errors.New("index: parser tool unavailable")

	// ErrParseFailure marks parser output that could not be decoded.
	ErrParseFailure = errors.New("index: malformed parser output")

	// ErrUnsupportedVersion marks parser output with an unknown schema version.
	ErrUnsupportedVersion = errors.New("index: unsupported result version")

	// ErrClosed is returned by operations on a closed Index.
	ErrClosed = errors.New("index: closed")
)

// UnsupportedVersionError names the rejected version and the accepted set.
type UnsupportedVersionError struct {
	Version   string
	Supported []string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported index version %q (supported: %s)",
		e.Version, strings.Join(e.Supported, ", "))
}

// Unwrap lets errors.Is match ErrUnsupportedVersion.
func (e *UnsupportedVersionError) Unwrap() error {
	return ErrUnsupportedVersion
}

// IndexError records which operation failed for which file.
type IndexError struct {
	Op   string
	File string
	Err  error
}

func (e *IndexError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *IndexError) Unwrap() error {
	return e.Err
}
