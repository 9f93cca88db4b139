// Package errors provides error formatting for expbox CLI output.
package errors

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintOptions controls error output formatting.
type PrintOptions struct {
	// Verbose enables detailed error output with more context keys and the cause chain.
	Verbose bool
}

// Context key whitelist (default mode, in order)
var defaultContextKeys = []string{
	"op",
	"exp_id",
	"input",
	"status",
	"reason",
	"config",
	"meta_path",
	"index_path",
	"path",
}

// Additional context keys for verbose mode
var verboseContextKeys = []string{
	"op",
	"exp_id",
	"input",
	"status",
	"reason",
	"config",
	"meta_path",
	"index_path",
	"path",
	"box_dir",
	"results_dir",
	"control_dir",
	"candidates",
	"command",
	"exit_code",
	"timeout",
	"hint",
}

const (
	maxValueLen      = 256 // Max chars for single-line context values
	maxExtraValueLen = 128 // Max chars for extra section values
)

// Format formats an error for display without I/O.
func Format(err error, opts PrintOptions) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	be, isBox := AsBoxError(err)
	if !isBox {
		sb.WriteString(err.Error())
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("error_code: ")
	sb.WriteString(string(be.Code))
	sb.WriteString("\n")

	sb.WriteString(be.Msg)
	sb.WriteString("\n")

	contextKeys := defaultContextKeys
	if opts.Verbose {
		contextKeys = verboseContextKeys
	}

	printedKeys := make(map[string]bool)
	wroteBlank := false
	for _, key := range contextKeys {
		if be.Details == nil || key == "hint" {
			continue
		}
		val, ok := be.Details[key]
		if !ok || val == "" {
			continue
		}
		if !wroteBlank {
			sb.WriteString("\n")
			wroteBlank = true
		}
		printedKeys[key] = true
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(sanitizeValue(val, maxValueLen))
		sb.WriteString("\n")
	}

	if opts.Verbose {
		if be.Details != nil {
			var extraKeys []string
			for key, val := range be.Details {
				if !printedKeys[key] && key != "hint" && val != "" {
					extraKeys = append(extraKeys, key)
				}
			}
			if len(extraKeys) > 0 {
				sort.Strings(extraKeys)
				sb.WriteString("\nextra:\n")
				for _, key := range extraKeys {
					sb.WriteString("  ")
					sb.WriteString(key)
					sb.WriteString(": ")
					sb.WriteString(sanitizeValue(be.Details[key], maxExtraValueLen))
					sb.WriteString("\n")
				}
			}
		}
		if be.Cause != nil {
			sb.WriteString("\ncause: ")
			sb.WriteString(sanitizeValue(be.Cause.Error(), maxValueLen))
			sb.WriteString("\n")
		}
	}

	if be.Details != nil {
		if hint, ok := be.Details["hint"]; ok && hint != "" {
			sb.WriteString("\nhint: ")
			sb.WriteString(hint)
			sb.WriteString("\n")
		}
	}

	for _, try := range deriveTryLines(be) {
		sb.WriteString("try: ")
		sb.WriteString(try)
		sb.WriteString("\n")
	}

	return sb.String()
}

// PrintWithOptions writes a formatted error to w with the given options.
func PrintWithOptions(w io.Writer, err error, opts PrintOptions) {
	if err == nil {
		return
	}
	_, _ = io.WriteString(w, Format(err, opts))
}

// sanitizeValue sanitizes a value for single-line context output.
// - Trims trailing whitespace first
// - Normalizes CRLF to LF
// - Replaces newlines with literal \n
// - Truncates to maxLen chars
func sanitizeValue(val string, maxLen int) string {
	val = strings.TrimRight(val, " \t\r\n")
	val = strings.ReplaceAll(val, "\r\n", "\n")
	val = strings.ReplaceAll(val, "\n", "\\n")
	if len(val) > maxLen {
		return val[:maxLen] + "…"
	}
	return val
}

// deriveTryLines returns actionable suggestions based on error code.
func deriveTryLines(be *BoxError) []string {
	if be == nil {
		return nil
	}

	var lines []string

	switch be.Code {
	case ENoActiveBox:
		lines = append(lines, "expbox load <exp_id>")
	case EIDAmbiguous:
		lines = append(lines, "expbox export --all")
	case EIndexWriteFailed:
		if be.Details != nil {
			if id := be.Details["exp_id"]; id != "" {
				lines = append(lines, fmt.Sprintf("expbox save %s", id))
			}
		}
	case ECorrupt:
		if be.Details != nil {
			if p := be.Details["meta_path"]; p != "" {
				lines = append(lines, fmt.Sprintf("inspect %s (expbox never repairs metadata)", p))
			}
		}
	}

	return lines
}

// FormatHint formats a hint for output.
// If hint already starts with "hint:", returns as-is.
// Otherwise prepends "hint: ".
func FormatHint(hint string) string {
	if hint == "" {
		return ""
	}
	if strings.HasPrefix(hint, "hint:") {
		return hint
	}
	return "hint: " + hint
}

// GetHint extracts the hint from an error's details, if present.
func GetHint(err error) string {
	be, ok := AsBoxError(err)
	if !ok || be.Details == nil {
		return ""
	}
	return be.Details["hint"]
}
