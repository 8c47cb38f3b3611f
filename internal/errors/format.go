package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for terminal output.
// Structured errors print the message with their code on a hint line;
// plain errors pass through unchanged.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var pe *PolicyError
	if !stderrors.As(err, &pe) {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", pe.Message))
	for k, v := range pe.Details {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", pe.Code))

	return sb.String()
}

// FormatForLog formats an error for structured logging.
// Returns slog-ready attribute pairs.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	var pe *PolicyError
	if !stderrors.As(err, &pe) {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"error_code": pe.Code,
		"message":    pe.Message,
		"category":   string(pe.Category),
		"severity":   string(pe.Severity),
		"retryable":  pe.Retryable,
	}

	if pe.Cause != nil {
		result["cause"] = pe.Cause.Error()
	}

	for k, v := range pe.Details {
		result["detail_"+k] = v
	}

	return result
}
