package score

import (
	"fmt"
	"log/slog"
)

// Warning codes.
const (
	MissingName          = "missing-name"
	MissingTextBlock     = "missing-text-block"
	MissingSmartShape    = "missing-smart-shape"
	MissingExpressionDef = "missing-expression-def"
	MissingCategory      = "missing-category"
	MissingClefDef       = "missing-clef-def"
	UnknownClef          = "unknown-clef"
	MissingTupletDef     = "missing-tuplet-def"
	MissingArticDef      = "missing-artic-def"
	TempoMarkUnparsed    = "tempo-mark-unparsed"
)

// Warning is a recoverable problem found while converting. Ref names the
// record that caused it.
type Warning struct {
	Code    string
	Ref     string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %s", w.Code, w.Ref, w.Message)
}

// Diagnostics collects warnings and logs each distinct one once.
type Diagnostics struct {
	logger   *slog.Logger
	warnings []Warning
	seen     map[[2]string]bool
}

func NewDiagnostics(logger *slog.Logger) *Diagnostics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Diagnostics{logger: logger, seen: map[[2]string]bool{}}
}

// Warn records a warning. Repeats of the same code and ref are dropped, as
// the same record is usually visited once per part and staff.
func (d *Diagnostics) Warn(code, ref, format string, args ...any) {
	key := [2]string{code, ref}
	if d.seen[key] {
		return
	}
	d.seen[key] = true

	w := Warning{Code: code, Ref: ref, Message: fmt.Sprintf(format, args...)}
	d.warnings = append(d.warnings, w)
	d.logger.Warn(w.Message, "code", code, "ref", ref)
}

// Warnings returns the warnings in the order they were found.
func (d *Diagnostics) Warnings() []Warning {
	return d.warnings
}
