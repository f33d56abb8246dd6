// Package score builds a MusicXML score-partwise document from an indexed
// Finale record store.
package score

import (
	"log/slog"
	"strconv"

	xmldom "github.com/subchen/go-xmldom"

	"github.com/james-see/musx2mxl/pkg/converter/finale"
)

// Version is the MusicXML version written.
const Version = "4.0"

// DocType is the partwise document type declaration.
const DocType = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 4.0 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">`

// Options configure a build.
type Options struct {
	Logger *slog.Logger
	// Software is written to identification/encoding.
	Software string
}

// Result is a built document with what was found on the way.
type Result struct {
	Document *xmldom.Document
	Parts    []PartDescriptor
	Warnings []Warning
}

// builder holds the state of one build. Nothing outlives Build.
type builder struct {
	store *finale.Store
	diag  *Diagnostics
	opts  finale.Options

	// tempoAnnounced is set once the playback tempo has been written.
	tempoAnnounced bool
}

// Build converts the store into a MusicXML document. meta may be nil.
func Build(store *finale.Store, meta *finale.Metadata, opts Options) (*Result, error) {
	b := &builder{
		store: store,
		diag:  NewDiagnostics(opts.Logger),
		opts:  store.Options(),
	}

	doc := xmldom.NewDocument("score-partwise")
	doc.Directives = append(doc.Directives, DocType)
	root := doc.Root
	root.SetAttributeValue("version", Version)

	writeHeader(root, meta, opts.Software)

	parts := ResolveParts(store, b.diag)
	partList := root.CreateNode("part-list")
	for _, p := range parts {
		sp := partList.CreateNode("score-part").SetAttributeValue("id", p.ID)
		textNode(sp, "part-name", p.Name)
		if p.Abbreviation != "" {
			textNode(sp, "part-abbreviation", p.Abbreviation)
		}
	}

	for _, p := range parts {
		if err := b.writePart(root, p); err != nil {
			return nil, err
		}
	}

	return &Result{Document: doc, Parts: parts, Warnings: b.diag.Warnings()}, nil
}

func textNode(parent *xmldom.Node, name, text string) *xmldom.Node {
	n := parent.CreateNode(name)
	n.Text = text
	return n
}

func intNode(parent *xmldom.Node, name string, v int) *xmldom.Node {
	return textNode(parent, name, strconv.Itoa(v))
}
