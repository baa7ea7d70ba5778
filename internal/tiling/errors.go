package tiling

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a reconciliation failure.
type ErrorKind string

const (
	KindNoPrimaryDisplay       ErrorKind = "NoPrimaryDisplay"
	KindInvalidIndexValue      ErrorKind = "InvalidIndexValue"
	KindMonitorIndexOutOfRange ErrorKind = "MonitorIndexOutOfRange"
	KindNoMatchingMonitorName  ErrorKind = "NoMatchingMonitorName"
	KindInvalidViewURL         ErrorKind = "InvalidViewUrl"
	KindWindowOperationFailed  ErrorKind = "WindowOperationFailed"
)

// Sentinels for errors.Is against a *ReconcileError of the same kind.
var (
	ErrNoPrimaryDisplay       = &ReconcileError{Kind: KindNoPrimaryDisplay}
	ErrInvalidIndexValue      = &ReconcileError{Kind: KindInvalidIndexValue}
	ErrMonitorIndexOutOfRange = &ReconcileError{Kind: KindMonitorIndexOutOfRange}
	ErrNoMatchingMonitorName  = &ReconcileError{Kind: KindNoMatchingMonitorName}
	ErrInvalidViewURL         = &ReconcileError{Kind: KindInvalidViewURL}
	ErrWindowOperationFailed  = &ReconcileError{Kind: KindWindowOperationFailed}
)

// ReconcileError aborts a single reconciliation attempt. Windows touched
// before the failing step keep whatever state they reached.
type ReconcileError struct {
	Kind ErrorKind

	Index  uint64 // MonitorIndexOutOfRange
	Needle string // NoMatchingMonitorName
	Value  string // InvalidIndexValue, InvalidViewUrl (raw input)
	ViewID string // InvalidViewUrl
	Label  string // WindowOperationFailed
	Op     string // WindowOperationFailed

	Err error
}

func (e *ReconcileError) Error() string {
	switch e.Kind {
	case KindNoPrimaryDisplay:
		return "no primary monitor found"
	case KindInvalidIndexValue:
		return fmt.Sprintf("invalid monitor index %q", e.Value)
	case KindMonitorIndexOutOfRange:
		return fmt.Sprintf("no monitor at index %d", e.Index)
	case KindNoMatchingMonitorName:
		return fmt.Sprintf("no monitor name contains '%s'", e.Needle)
	case KindInvalidViewURL:
		if e.Err != nil {
			return fmt.Sprintf("invalid url for view '%s': %q: %v", e.ViewID, e.Value, e.Err)
		}
		return fmt.Sprintf("invalid url for view '%s': %q", e.ViewID, e.Value)
	case KindWindowOperationFailed:
		return fmt.Sprintf("window %s: %s failed: %v", e.Label, e.Op, e.Err)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Kind)
	}
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// Is matches any *ReconcileError with the same Kind.
func (e *ReconcileError) Is(target error) bool {
	var t *ReconcileError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func windowOpFailed(label, op string, err error) error {
	return &ReconcileError{Kind: KindWindowOperationFailed, Label: label, Op: op, Err: err}
}
