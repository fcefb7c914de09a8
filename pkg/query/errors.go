package query

import (
	"errors"
	"fmt"
)

var (
	// ErrScanFailed is matched by every error raised while a scan reads storage.
	ErrScanFailed = errors.New("scan failed")

	ErrUndefinedVariable   = errors.New("undefined variable")
	ErrDuplicateVariable   = errors.New("variable already bound")
	ErrUnsupportedPattern  = errors.New("unsupported pattern")
	ErrUnknownSortKey      = errors.New("unknown ORDER BY key")
	ErrInvalidQuery        = errors.New("invalid query")
	ErrQueryCancelled      = errors.New("query execution cancelled")
	ErrExecutorUnavailable = errors.New("executor has no graph")
)

// SyntaxError reports a lexing or parsing failure at a position in the text.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// ScanError describes a storage failure observed by a scan operator.
type ScanError struct {
	Operator string
	Variable string
	NodeID   uint64
	Cause    error
}

func (e *ScanError) Error() string {
	msg := fmt.Sprintf("%s (%s) failed", e.Operator, e.Variable)
	if e.NodeID != 0 {
		msg += fmt.Sprintf(" reading node %d", e.NodeID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrScanFailed) match any ScanError.
func (e *ScanError) Is(target error) bool {
	return target == ErrScanFailed
}

func planError(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
