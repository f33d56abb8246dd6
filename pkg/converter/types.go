// Package converter converts Finale scores to MusicXML, compressed MusicXML
// and MIDI
package converter

import (
	"log/slog"

	"github.com/james-see/musx2mxl/pkg/converter/score"
)

// DefaultSoftware is written to the identification of every document
const DefaultSoftware = "musx2mxl"

// Options configure a Converter
type Options struct {
	// Logger receives debug output and conversion warnings. nil means
	// slog.Default().
	Logger *slog.Logger
	// Software is written to identification/encoding. Empty means
	// DefaultSoftware.
	Software string
}

// ConversionResult holds the result of a conversion
type ConversionResult struct {
	Data     []byte
	Format   Format
	Parts    []score.PartDescriptor
	Warnings []score.Warning
}

// Converter handles format conversions. It holds no per-conversion state and
// may be shared between goroutines.
type Converter struct {
	logger   *slog.Logger
	software string
}

// New creates a new Converter
func New(opts Options) *Converter {
	c := &Converter{logger: opts.Logger, software: opts.Software}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.software == "" {
		c.software = DefaultSoftware
	}
	return c
}

// Logger returns the logger conversions report to
func (c *Converter) Logger() *slog.Logger {
	return c.logger
}
