package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeInternal      ErrorCode = "INTERNAL"
	CodeConfig        ErrorCode = "CONFIG"
	CodeInputFile     ErrorCode = "INPUT_FILE"
	CodeMissingColumn ErrorCode = "MISSING_COLUMN"
	CodeDataQuality   ErrorCode = "DATA_QUALITY"
	CodeExport        ErrorCode = "EXPORT"
)

// AppError carries the failure class plus, for data-quality failures, the
// location of the offending value. Row is 1-based and counts the header line.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Row        int       `json:"row,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	Column     string    `json:"column,omitempty"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var where []string
	if e.Row > 0 {
		where = append(where, fmt.Sprintf("row %d", e.Row))
	}
	if e.CustomerID != "" {
		where = append(where, fmt.Sprintf("customer %s", e.CustomerID))
	}
	if e.Column != "" {
		where = append(where, fmt.Sprintf("column %s", e.Column))
	}
	if len(where) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(where, ", "))
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Config(message string) *AppError {
	return New(CodeConfig, message)
}

func ConfigWrap(err error, message string) *AppError {
	return Wrap(err, CodeConfig, message)
}

func InputFileWrap(err error, message string) *AppError {
	return Wrap(err, CodeInputFile, message)
}

func MissingColumn(column string) *AppError {
	e := New(CodeMissingColumn, "required column is missing")
	e.Column = column
	return e
}

// DataQuality reports a bad value at a specific row of the input.
func DataQuality(row int, customerID, column, message string, cause error) *AppError {
	return &AppError{
		Code:       CodeDataQuality,
		Message:    message,
		Row:        row,
		CustomerID: customerID,
		Column:     column,
		Cause:      cause,
	}
}

func ExportWrap(err error, message string) *AppError {
	return Wrap(err, CodeExport, message)
}

// CodeOf returns the code of the first AppError in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeConfig, CodeInputFile, CodeMissingColumn:
		return 2
	case CodeDataQuality:
		return 3
	case CodeExport:
		return 4
	default:
		return 1
	}
}
