package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mcphackers/mcpctl/engine/catalog"
	"github.com/mcphackers/mcpctl/engine/executor"
)

// Error codes reported by the CLI.
const (
	CodeIneligible = "INELIGIBLE"
	CodeFailed     = "TASK_FAILED"
	CodeDeclined   = "DECLINED"
	CodeLocked     = "LOCKED"
	CodeConfig     = "CONFIG"
	CodeNotFound   = "NOT_FOUND"
	CodeInvalidArg = "INVALID_ARGUMENT"
	CodeInternal   = "INTERNAL"
)

// CliError represents a CLI-specific error with enhanced context
type CliError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	cause   error
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CliError) Unwrap() error {
	return e.cause
}

// NewCliError creates a new CLI error
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{Code: code, Message: message}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WrapError classifies err into a CliError. Errors that already are one are
// returned unchanged.
func WrapError(err error) *CliError {
	if err == nil {
		return nil
	}
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	code := CodeInternal
	switch {
	case errors.Is(err, executor.ErrIneligibleOperation):
		code = CodeIneligible
	case errors.Is(err, executor.ErrOperationFailed):
		code = CodeFailed
	case errors.Is(err, catalog.ErrVersionNotFound):
		code = CodeNotFound
	}
	return &CliError{Code: code, Message: err.Error(), cause: err}
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

// FormatError formats errors based on output mode
func FormatError(err error, mode Mode, color bool) string {
	if err == nil {
		return ""
	}
	cliErr := WrapError(err)
	if mode == ModeJSON {
		data, jerr := json.Marshal(map[string]any{"error": cliErr})
		if jerr != nil {
			return fmt.Sprintf(`{"error": {"code": %q, "message": %q}}`, CodeInternal, err.Error())
		}
		return string(data)
	}
	msg := "✗ " + cliErr.Message
	details := ""
	if cliErr.Details != "" {
		details = "Details: " + cliErr.Details
	}
	if color {
		msg = errorStyle.Render(msg)
		if details != "" {
			details = detailStyle.Render(details)
		}
	}
	if details != "" {
		return msg + "\n" + details
	}
	return msg
}

// OutputError outputs an error in the appropriate format
func OutputError(w io.Writer, err error, mode Mode, color bool) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err, mode, color))
}
