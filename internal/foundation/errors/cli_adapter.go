package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
)

// exitCodes maps categories to process exit codes. Anything not listed
// exits with 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   4,
	CategoryAuth:       5,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryGit:        8,
	CategoryInternal:   10,
	CategoryFileSystem: 11,
	CategoryDocument:   11,
	CategoryHistory:    11,
	CategoryRuntime:    12,
}

// CLIErrorAdapter turns a command error into a stderr line and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor returns 0 for nil, the category's code for classified errors
// and 1 otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	ce, ok := AsClassified(err)
	if !ok {
		return 1
	}
	if code, known := exitCodes[ce.Category()]; known {
		return code
	}
	return 1
}

// FormatError renders err for a terminal. Problems the user can fix print the
// bare message; verbose mode prints the full chain.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	ce, ok := AsClassified(err)
	switch {
	case !ok:
		return fmt.Sprintf("Error: %v", err)
	case a.verbose:
		return ce.Error()
	}
	switch ce.Category() {
	case CategoryConfig, CategoryValidation, CategoryAuth, CategoryNotFound:
		return ce.Message()
	case CategoryInternal:
		return "Internal error occurred (use -v for details)"
	default:
		return fmt.Sprintf("%s: %s", ce.Category(), ce.Message())
	}
}

// Report logs err when it warrants it, writes the formatted message to w and
// returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	a.log(err)
	_, _ = fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError reports err on stderr and exits. A nil error returns.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(os.Stderr, err))
}

func (a *CLIErrorAdapter) log(err error) {
	ce, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", slog.Any("error", err))
		return
	}
	if !a.verbose && ce.Severity() != SeverityFatal {
		return
	}

	attrs := []slog.Attr{slog.String("category", string(ce.Category()))}
	if ce.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	ctx := ce.Context()
	for _, k := range slices.Sorted(maps.Keys(ctx)) {
		attrs = append(attrs, slog.Any(k, ctx[k]))
	}
	a.logger.LogAttrs(context.Background(), levelFor(ce.Severity()), ce.Message(), attrs...)
}

func levelFor(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
