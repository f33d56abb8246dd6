package score

import (
	"fmt"
	"slices"
	"strconv"

	xmldom "github.com/subchen/go-xmldom"

	"github.com/james-see/musx2mxl/pkg/converter/finale"
	"github.com/james-see/musx2mxl/pkg/converter/symbols"
	"github.com/james-see/musx2mxl/pkg/converter/theory"
)

// partState tracks the attributes last written for a part.
type partState struct {
	started bool
	key     theory.Key
	beats   int
	divbeat int
	clefs   []int
	ending  int
}

// staffContext is one staff of a part within one measure.
type staffContext struct {
	measure *xmldom.Node
	meas    finale.MeasSpec
	staff   finale.StaffSpec
	// number is the staff number within the part, or 0 for a single staff
	// part.
	number int
	shapes []finale.SmartShape
}

func (c staffContext) voice(frame int) int {
	if c.number == 0 {
		return frame
	}
	return (c.number-1)*4 + frame
}

func (c staffContext) setStaff(n *xmldom.Node) {
	if c.number > 0 {
		intNode(n, "staff", c.number)
	}
}

func (b *builder) writePart(root *xmldom.Node, p PartDescriptor) error {
	part := root.CreateNode("part").SetAttributeValue("id", p.ID)
	var ps partState
	measures := b.store.Measures()
	for i, m := range measures {
		if err := b.writeMeasure(part, p, &ps, m, i == len(measures)-1); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) writeMeasure(part *xmldom.Node, p PartDescriptor, ps *partState, m finale.MeasSpec, last bool) error {
	measure := part.CreateNode("measure").SetAttributeValue("number", strconv.Itoa(m.Cmper))
	b.writeAttributes(measure, p, ps, m)

	if m.ForwardRepeat || m.Ending {
		left := measure.CreateNode("barline").SetAttributeValue("location", "left")
		if m.ForwardRepeat {
			textNode(left, "bar-style", "heavy-light")
		}
		if m.Ending {
			ps.ending++
			writeEnding(left, ps.ending, "start")
		}
		if m.ForwardRepeat {
			left.CreateNode("repeat").SetAttributeValue("direction", "forward")
		}
	}

	var shapes []finale.SmartShape
	if m.HasSmartShape {
		shapes = b.measureShapes(m.Cmper)
	}

	for i, staff := range p.Staves {
		ctx := staffContext{measure: measure, meas: m, staff: staff, shapes: shapes}
		if p.MultiStaff() {
			ctx.number = i + 1
		}
		if i > 0 {
			writeBackup(measure, m)
		}
		if err := b.writeStaff(ctx); err != nil {
			return err
		}
	}

	barline := m.Barline
	if last {
		barline = "final"
	}
	right := measure.CreateNode("barline").SetAttributeValue("location", "right")
	textNode(right, "bar-style", symbols.BarStyle(barline, m.BackwardRepeat, m.Ending))
	if m.Ending {
		writeEnding(right, ps.ending, "stop")
	} else {
		ps.ending = 0
	}
	if m.BackwardRepeat {
		right.CreateNode("repeat").
			SetAttributeValue("direction", "backward").
			SetAttributeValue("winged", "none")
	}
	return nil
}

func writeEnding(barline *xmldom.Node, number int, typ string) {
	n := strconv.Itoa(number)
	textNode(barline, "ending", n+".").
		SetAttributeValue("number", n).
		SetAttributeValue("type", typ)
}

// writeBackup rewinds to the start of the measure.
func writeBackup(measure *xmldom.Node, m finale.MeasSpec) {
	intNode(measure.CreateNode("backup"), "duration", theory.MeasureDivisions(m.Beats, m.Divbeat))
}

// writeAttributes writes the attributes that changed since the previous
// measure. The first measure always gets divisions, key and time.
func (b *builder) writeAttributes(measure *xmldom.Node, p PartDescriptor, ps *partState, m finale.MeasSpec) {
	first := !ps.started
	ps.started = true

	clefs := make([]int, len(p.Staves))
	for i, staff := range p.Staves {
		clefs[i] = b.staffClef(staff.Cmper, m.Cmper, ps, i)
	}

	keyChanged := first || m.Key != ps.key
	timeChanged := first || m.Beats != ps.beats || m.Divbeat != ps.divbeat
	clefChanged := first || !slices.Equal(clefs, ps.clefs)
	transpose := theory.TransposeInterval(p.Staves[0].Interval)
	if !keyChanged && !timeChanged && !clefChanged {
		return
	}

	attrs := measure.CreateNode("attributes")
	if first {
		intNode(attrs, "divisions", theory.Divisions)
	}
	if keyChanged {
		mode, fifths := theory.KeyFifthsAndMode(m.Key, p.Staves[0].KeyAdjust)
		key := attrs.CreateNode("key")
		intNode(key, "fifths", fifths)
		textNode(key, "mode", string(mode))
		ps.key = m.Key
	}
	if timeChanged {
		num, den := theory.TimeSignature(m.Beats, m.Divbeat)
		t := attrs.CreateNode("time")
		switch {
		case m.Beats == 4 && m.Divbeat == 1024 && b.opts.AbbreviateCommon:
			t.SetAttributeValue("symbol", "common")
		case m.Beats == 2 && m.Divbeat == 2048 && b.opts.AbbreviateCut:
			t.SetAttributeValue("symbol", "cut")
		}
		intNode(t, "beats", num)
		intNode(t, "beat-type", den)
		ps.beats, ps.divbeat = m.Beats, m.Divbeat
	}
	if first && p.MultiStaff() {
		intNode(attrs, "staves", len(p.Staves))
	}
	if clefChanged {
		for i, id := range clefs {
			number := 0
			if p.MultiStaff() {
				number = i + 1
			}
			b.writeClef(attrs, id, number)
		}
		ps.clefs = clefs
	}
	if first && !transpose.IsZero() {
		tr := attrs.CreateNode("transpose")
		intNode(tr, "diatonic", transpose.Diatonic)
		intNode(tr, "chromatic", transpose.Chromatic)
		if transpose.OctaveChange != 0 {
			intNode(tr, "octave-change", transpose.OctaveChange)
		}
	}
}

// noClef marks a staff that is never given a clef. It is written as
// DefaultClef on line 2.
const noClef = -1

// staffClef returns the clef in effect for a staff in a measure: the clef
// of its frame table, else the previous clef, else the first clef the staff
// is ever given.
func (b *builder) staffClef(staff, meas int, ps *partState, index int) int {
	if g, ok := b.store.GFHold(staff, meas); ok && g.HasClef {
		return g.ClefID
	}
	if index < len(ps.clefs) {
		return ps.clefs[index]
	}
	if id, ok := b.store.FirstClef(staff); ok {
		return id
	}
	return noClef
}

func (b *builder) writeClef(attrs *xmldom.Node, id, number int) {
	clef := symbols.DefaultClef
	line := 2
	ref := fmt.Sprintf("clefDef %d", id)
	def, ok := b.store.ClefDef(id)
	switch {
	case id == noClef:
	case !ok:
		b.diag.Warn(MissingClefDef, ref, "clef definition %d not found", id)
	default:
		var known bool
		clef, known = symbols.ClefForChar(def.Char)
		if !def.HasChar || !known {
			b.diag.Warn(UnknownClef, ref, "unknown clef glyph %d", def.Char)
		}
		line = 5 + floorHalf(def.YDisp)
	}

	n := attrs.CreateNode("clef")
	if number > 0 {
		n.SetAttributeValue("number", strconv.Itoa(number))
	}
	textNode(n, "sign", clef.Sign)
	if clef.Sign != "percussion" {
		intNode(n, "line", line)
	}
	if clef.OctaveChange != 0 {
		intNode(n, "clef-octave-change", clef.OctaveChange)
	}
}

func floorHalf(v int) int {
	if v < 0 {
		return -((-v + 1) / 2)
	}
	return v / 2
}

// layerFrame is a layer of a staff whose frame has entries to walk.
type layerFrame struct {
	layer, frame int
}

// writeStaff writes the content of one staff for one measure. A staff with
// no entries in any layer gets a measure rest.
func (b *builder) writeStaff(ctx staffContext) error {
	b.writeWedges(ctx, true)

	var layers []layerFrame
	g, ok := b.store.GFHold(ctx.staff.Cmper, ctx.meas.Cmper)
	if ok && g.HasFrames() {
		for i, frame := range g.Frames {
			if frame != 0 && b.frameHasEntries(frame) {
				layers = append(layers, layerFrame{layer: i + 1, frame: frame})
			}
		}
		if !b.tempoAnnounced {
			b.writeTempo(ctx)
			b.tempoAnnounced = true
		}
	}

	if len(layers) == 0 {
		if err := b.writeMeasureRest(ctx); err != nil {
			return err
		}
	}
	for n, l := range layers {
		if n > 0 {
			writeBackup(ctx.measure, ctx.meas)
		}
		if err := b.writeFrame(ctx, l.frame, l.layer); err != nil {
			return err
		}
	}

	if ctx.meas.HasExpr {
		b.writeExpressions(ctx)
	}
	b.writeWedges(ctx, false)
	return nil
}

// writeMeasureRest fills an empty staff with one rest as long as the
// measure's default frame, or the time signature when there is none.
func (b *builder) writeMeasureRest(ctx staffContext) error {
	edus := ctx.meas.Beats * ctx.meas.Divbeat
	if frame, ok := b.store.DefaultFrame(ctx.meas.Cmper); ok {
		if specs := b.store.Frames(frame); len(specs) > 0 {
			sum := 0
			err := b.store.WalkChain(specs[0].StartEntry, specs[0].EndEntry, func(e finale.Entry) error {
				sum += e.Dura
				return nil
			})
			if err != nil {
				return err
			}
			if sum > 0 {
				edus = sum
			}
		}
	}

	note := ctx.measure.CreateNode("note")
	note.CreateNode("rest")
	intNode(note, "duration", theory.ToDivisions(edus))
	intNode(note, "voice", ctx.voice(1))
	writeType(note, edus)
	ctx.setStaff(note)
	return nil
}

// writeTempo writes the playback tempo as a metronome mark.
func (b *builder) writeTempo(ctx staffContext) {
	if !b.opts.HasPlayback {
		return
	}
	unit, dots := theory.DurationTypeAndDots(b.opts.EdusPerBeat)
	if unit == "" {
		return
	}

	dir := ctx.measure.CreateNode("direction").SetAttributeValue("placement", "above")
	metronome := dir.CreateNode("direction-type").CreateNode("metronome")
	textNode(metronome, "beat-unit", unit)
	for range dots {
		metronome.CreateNode("beat-unit-dot")
	}
	intNode(metronome, "per-minute", b.opts.BeatsPerMinute)
	ctx.setStaff(dir)

	quarters := float64(b.opts.BeatsPerMinute) * float64(b.opts.EdusPerBeat) / theory.EDUsPerQuarter
	dir.CreateNode("sound").SetAttributeValue("tempo", strconv.FormatFloat(quarters, 'f', -1, 64))
}
