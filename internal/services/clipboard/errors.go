package clipboard

import (
	"errors"
	"fmt"
)

// ErrorKind classifies clipboard failures.
type ErrorKind string

const (
	// KindClipboardAPIUnavailable marks a primary writer that cannot be used in this environment.
	KindClipboardAPIUnavailable ErrorKind = "clipboard_api_unavailable"
	// KindPermissionDenied marks a primary writer that rejected the write.
	KindPermissionDenied ErrorKind = "permission_denied"
	// KindLegacyCommandUnsupported marks a legacy copy path that cannot run at all.
	KindLegacyCommandUnsupported ErrorKind = "legacy_command_unsupported"
	// KindLegacyCommandFailed marks a legacy copy command that ran and reported failure.
	KindLegacyCommandFailed ErrorKind = "legacy_command_failed"
)

// CopyError carries the failure kind and the underlying cause.
type CopyError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (copyError *CopyError) Error() string {
	if copyError == nil {
		return ""
	}
	if copyError.Cause == nil {
		return fmt.Sprintf("%s: %s", copyError.Kind, copyError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", copyError.Kind, copyError.Message, copyError.Cause)
}

func (copyError *CopyError) Unwrap() error {
	if copyError == nil {
		return nil
	}
	return copyError.Cause
}

// NewCopyError constructs a CopyError.
func NewCopyError(kind ErrorKind, message string, cause error) error {
	return &CopyError{Kind: kind, Message: message, Cause: cause}
}

// IsKind reports whether err is a CopyError of the provided kind.
func IsKind(err error, kind ErrorKind) bool {
	var copyError *CopyError
	if errors.As(err, &copyError) {
		return copyError.Kind == kind
	}
	return false
}
