package converter

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/james-see/musx2mxl/pkg/converter/finale"
	"github.com/james-see/musx2mxl/pkg/converter/score"
)

// Format represents a file format
type Format string

const (
	FormatMusx     Format = "musx"
	FormatEnigma   Format = "enigmaxml"
	FormatMusicXML Format = "musicxml"
	FormatMXL      Format = "mxl"
	FormatMIDI     Format = "midi"
	FormatUnknown  Format = "unknown"
)

// Extension returns the usual file extension of the format
func (f Format) Extension() string {
	switch f {
	case FormatMIDI:
		return ".mid"
	case FormatUnknown:
		return ""
	default:
		return "." + string(f)
	}
}

// ContentType returns the media type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatMusicXML:
		return "application/vnd.recordare.musicxml+xml"
	case FormatMXL:
		return "application/vnd.recordare.musicxml"
	case FormatMIDI:
		return "audio/midi"
	case FormatEnigma:
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat maps a format name, with or without a leading dot, to a Format
func ParseFormat(name string) Format {
	return DetectFormat("file." + strings.TrimPrefix(name, "."))
}

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".musx":
		return FormatMusx
	case ".enigmaxml":
		return FormatEnigma
	case ".musicxml", ".xml":
		return FormatMusicXML
	case ".mxl":
		return FormatMXL
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// sniffLimit bounds how far into a document the root element is looked for.
const sniffLimit = 4096

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	switch {
	case bytes.HasPrefix(data, []byte("MThd")):
		return FormatMIDI
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return archiveFormat(data)
	}

	head := data[:min(len(data), sniffLimit)]
	switch {
	case bytes.Contains(head, []byte("<finale")):
		return FormatEnigma
	case bytes.Contains(head, []byte("<score-partwise")):
		return FormatMusicXML
	}
	return FormatUnknown
}

// archiveFormat tells .musx from .mxl archives by their entries
func archiveFormat(data []byte) Format {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return FormatUnknown
	}
	for _, f := range zr.File {
		switch {
		case path.Base(f.Name) == musxScoreEntry:
			return FormatMusx
		case f.Name == mxlContainer || f.Name == "mimetype":
			return FormatMXL
		}
	}
	return FormatUnknown
}

// Convert reads an EnigmaXML score and, when meta is not nil, its
// NotationMetadata, and produces an uncompressed MusicXML document.
func (c *Converter) Convert(scoreData, meta io.Reader) (*ConversionResult, error) {
	store, err := finale.Parse(scoreData)
	if err != nil {
		return nil, fmt.Errorf("failed to read score: %w", err)
	}

	var md *finale.Metadata
	if meta != nil {
		m, err := finale.ParseMetadata(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata: %w", err)
		}
		md = &m
	}

	res, err := score.Build(store, md, score.Options{Logger: c.logger, Software: c.software})
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	c.logger.Debug("score converted",
		"parts", len(res.Parts),
		"measures", len(store.Measures()),
		"warnings", len(res.Warnings))

	return &ConversionResult{
		Data:     []byte(res.Document.XMLPretty()),
		Format:   FormatMusicXML,
		Parts:    res.Parts,
		Warnings: res.Warnings,
	}, nil
}

// ConvertMusx converts the content of a .musx archive to MusicXML
func (c *Converter) ConvertMusx(data []byte) (*ConversionResult, error) {
	f, err := ReadMusx(data)
	if err != nil {
		return nil, err
	}
	var meta io.Reader
	if f.Metadata != nil {
		meta = bytes.NewReader(f.Metadata)
	}
	return c.Convert(bytes.NewReader(f.Score), meta)
}

// ToMusicXML brings any readable input format to an uncompressed MusicXML
// document. MusicXML input is passed through.
func (c *Converter) ToMusicXML(data []byte, from Format) (*ConversionResult, error) {
	switch from {
	case FormatMusx:
		return c.ConvertMusx(data)
	case FormatEnigma:
		return c.Convert(bytes.NewReader(data), nil)
	case FormatMusicXML:
		return &ConversionResult{Data: data, Format: FormatMusicXML}, nil
	case FormatMXL:
		doc, err := ReadMXL(data)
		if err != nil {
			return nil, err
		}
		return &ConversionResult{Data: doc, Format: FormatMusicXML}, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", from)
	}
}

// Encode writes a MusicXML result in the output format. Parts and warnings
// are carried over.
func (c *Converter) Encode(res *ConversionResult, to Format) (*ConversionResult, error) {
	if res.Format != FormatMusicXML {
		return nil, fmt.Errorf("cannot encode %s data", res.Format)
	}

	out := *res
	out.Format = to
	var err error
	switch to {
	case FormatMusicXML:
		return &out, nil
	case FormatMXL:
		out.Data, err = WriteMXL(res.Data)
	case FormatMIDI:
		out.Data, err = NewMIDIConverter().GenerateMIDI(bytes.NewReader(res.Data))
	default:
		return nil, fmt.Errorf("unsupported output format: %s", to)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", to, err)
	}
	return &out, nil
}

// ConvertBytes converts data from one format to another
func (c *Converter) ConvertBytes(data []byte, from, to Format) (*ConversionResult, error) {
	if from == FormatUnknown {
		from = DetectFormatFromContent(data)
	}
	if !supported(from, to) {
		return nil, fmt.Errorf("unsupported conversion: %s to %s", from, to)
	}
	res, err := c.ToMusicXML(data, from)
	if err != nil {
		return nil, err
	}
	return c.Encode(res, to)
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) (*ConversionResult, error) {
	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return nil, errors.New("cannot determine output format from filename")
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	inputFormat := DetectFormat(inputPath)
	if inputFormat == FormatUnknown || inputFormat == FormatMusicXML {
		// .xml is shared by EnigmaXML exports and MusicXML
		if sniffed := DetectFormatFromContent(data); sniffed != FormatUnknown {
			inputFormat = sniffed
		}
	}

	res, err := c.ConvertBytes(data, inputFormat, outputFormat)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(outputPath, res.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}

	c.logger.Info("converted", "input", inputPath, "output", outputPath, "warnings", len(res.Warnings))
	return res, nil
}

var (
	inputFormats  = []Format{FormatMusx, FormatEnigma, FormatMusicXML, FormatMXL}
	outputFormats = []Format{FormatMusicXML, FormatMXL, FormatMIDI}
)

func supported(from, to Format) bool {
	for _, conv := range conversions() {
		if conv[0] == from && conv[1] == to {
			return true
		}
	}
	return false
}

func conversions() [][2]Format {
	var out [][2]Format
	for _, from := range inputFormats {
		for _, to := range outputFormats {
			if from == to {
				continue
			}
			out = append(out, [2]Format{from, to})
		}
	}
	return out
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	var out []string
	for _, conv := range conversions() {
		out = append(out, fmt.Sprintf("%s -> %s", conv[0], conv[1]))
	}
	return out
}
