package score

import (
	"fmt"
	"strconv"

	xmldom "github.com/subchen/go-xmldom"

	"github.com/james-see/musx2mxl/pkg/converter/finale"
	"github.com/james-see/musx2mxl/pkg/converter/symbols"
	"github.com/james-see/musx2mxl/pkg/converter/theory"
)

// voiceWriter writes the entries of one frame as one voice.
type voiceWriter struct {
	b       *builder
	ctx     staffContext
	voice   int
	tuplets theory.TupletStack
}

// frameHasEntries reports whether any chain of a frame starts at an entry
// that exists.
func (b *builder) frameHasEntries(frame int) bool {
	for _, fs := range b.store.Frames(frame) {
		if _, ok := b.store.Entry(fs.StartEntry); ok {
			return true
		}
	}
	return false
}

// writeFrame walks the entry chains of a frame.
func (b *builder) writeFrame(ctx staffContext, frame, layer int) error {
	for _, fs := range b.store.Frames(frame) {
		w := &voiceWriter{b: b, ctx: ctx, voice: ctx.voice(layer)}
		if err := b.store.WalkChain(fs.StartEntry, fs.EndEntry, w.writeEntry); err != nil {
			return err
		}
	}
	return nil
}

// tupletMarks is the tuplet bookkeeping of one entry.
type tupletMarks struct {
	started []*theory.TupletFrame
	stopped []*theory.TupletFrame
	actual  int
	normal  int
}

func (w *voiceWriter) writeEntry(e finale.Entry) error {
	tm := w.trackTuplets(e)

	if !e.IsNote || len(e.Notes) == 0 {
		note := w.ctx.measure.CreateNode("note")
		note.CreateNode("rest")
		intNode(note, "duration", theory.ToDivisions(e.Dura))
		intNode(note, "voice", w.voice)
		writeType(note, e.Dura)
		writeTimeModification(note, tm)
		w.ctx.setStaff(note)
		w.writeNotations(note, e, tm)
		return nil
	}

	for i, n := range e.Notes {
		note := w.ctx.measure.CreateNode("note")
		if e.Grace {
			note.CreateNode("grace").SetAttributeValue("slash", "no")
		}
		if i > 0 {
			note.CreateNode("chord")
		}
		w.writePitch(note, e, n)
		if !e.Grace {
			intNode(note, "duration", theory.ToDivisions(e.Dura))
		}
		if n.TieStart {
			note.CreateNode("tie").SetAttributeValue("type", "start")
		}
		if n.TieEnd {
			note.CreateNode("tie").SetAttributeValue("type", "stop")
		}
		intNode(note, "voice", w.voice)
		writeType(note, e.Dura)
		writeTimeModification(note, tm)
		w.ctx.setStaff(note)
		if i == 0 {
			w.writeNotations(note, e, tm)
		}
	}
	return nil
}

// trackTuplets opens the tuplets starting on the entry and counts its
// duration against the open ones. Grace notes take no time.
func (w *voiceWriter) trackTuplets(e finale.Entry) tupletMarks {
	var tm tupletMarks
	if e.TupletStart {
		defs := w.b.store.TupletDefs(e.Num)
		if len(defs) == 0 {
			w.b.diag.Warn(MissingTupletDef, fmt.Sprintf("entry %d", e.Num), "tuplet definition for entry %d not found", e.Num)
		}
		for _, d := range defs {
			tm.started = append(tm.started, w.tuplets.Push(d.SymbolicNum, d.SymbolicDur, d.RefNum, d.RefDur))
		}
	}
	if e.Grace || w.tuplets.Len() == 0 {
		return tm
	}
	tm.actual, tm.normal = w.tuplets.TimeModification()
	tm.stopped = w.tuplets.Accumulate(e.Dura)
	return tm
}

func (w *voiceWriter) writePitch(note *xmldom.Node, e finale.Entry, n finale.Note) {
	respell := false
	if e.NoteDetail {
		if alter, ok := w.b.store.NoteAlter(e.Num, n.ID); ok {
			respell = alter.Enharmonic
		}
	}
	staff := w.ctx.staff
	p := theory.PitchOf(n.HarmLev, n.HarmAlt, w.ctx.meas.Key, staff.KeyAdjust, staff.Interval, respell)

	pitch := note.CreateNode("pitch")
	textNode(pitch, "step", p.Step)
	if p.Alter != 0 {
		intNode(pitch, "alter", p.Alter)
	}
	intNode(pitch, "octave", p.Octave)
}

// writeType writes the note type and dots, if the duration has a name.
func writeType(note *xmldom.Node, edus int) {
	name, dots := theory.DurationTypeAndDots(edus)
	if name == "" {
		return
	}
	textNode(note, "type", name)
	for range dots {
		note.CreateNode("dot")
	}
}

func writeTimeModification(note *xmldom.Node, tm tupletMarks) {
	if tm.actual == 0 || tm.normal == 0 {
		return
	}
	mod := note.CreateNode("time-modification")
	intNode(mod, "actual-notes", tm.actual)
	intNode(mod, "normal-notes", tm.normal)
}

// writeNotations writes slurs, tuplet brackets and articulations. Nothing
// is written when the entry has none.
func (w *voiceWriter) writeNotations(note *xmldom.Node, e finale.Entry, tm tupletMarks) {
	var notations *xmldom.Node
	add := func(name string) *xmldom.Node {
		if notations == nil {
			notations = note.CreateNode("notations")
		}
		return notations.CreateNode(name)
	}

	if e.SmartShapeDetail {
		for _, num := range w.b.store.EntryShapes(e.Num) {
			shape, ok := w.b.store.SmartShape(num)
			if !ok {
				w.b.diag.Warn(MissingSmartShape, fmt.Sprintf("smartShape %d", num), "smart shape %d not found", num)
				continue
			}
			if !shape.Kind.IsSlur() {
				continue
			}
			typ := "stop"
			if shape.Start.HasEntry && shape.Start.Entry == e.Num {
				typ = "start"
			}
			add("slur").SetAttributeValue("number", "1").SetAttributeValue("type", typ)
		}
	}

	for _, f := range tm.started {
		add("tuplet").
			SetAttributeValue("number", strconv.Itoa(f.Number)).
			SetAttributeValue("type", "start")
	}
	for _, f := range tm.stopped {
		add("tuplet").
			SetAttributeValue("number", strconv.Itoa(f.Number)).
			SetAttributeValue("type", "stop")
	}

	if e.ArticDetail {
		var articulations *xmldom.Node
		for _, id := range w.b.store.Articulations(e.Num) {
			def, ok := w.b.store.ArticDef(id)
			if !ok {
				w.b.diag.Warn(MissingArticDef, fmt.Sprintf("articDef %d", id), "articulation definition %d not found", id)
				continue
			}
			if articulations == nil {
				articulations = add("articulations")
			}
			a := symbols.ArticulationForChar(def.CharMain)
			n := articulations.CreateNode(a.Name)
			if a.Type != "" {
				n.SetAttributeValue("type", a.Type)
			}
		}
	}
}
