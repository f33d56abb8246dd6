package finale

import (
	"io"

	"github.com/pkg/errors"
	xmldom "github.com/subchen/go-xmldom"
)

var (
	// ErrNotFinale is returned when the document root is not <finale>.
	ErrNotFinale = errors.New("not a finale document")
	// ErrUnterminatedChain is returned when an entry chain never reaches its
	// end entry.
	ErrUnterminatedChain = errors.New("unterminated entry chain")
)

type staffMeas struct {
	staff, meas int
}

// Store indexes the records of one document. It is built once by Parse or
// Load and never modified afterwards, so it may be shared between
// goroutines.
type Store struct {
	options Options
	clefs   map[int]ClefDef

	staves   []StaffSpec
	groups   []StaffGroup
	measures []MeasSpec

	textBlocks  map[int]TextBlock
	blockTexts  map[int]string
	exprTexts   map[int]string
	exprAssigns map[int][]ExprAssign
	exprDefs    map[int]TextExprDef
	categories  map[int]Category

	shapes     map[int]SmartShape
	measShapes map[int][]int
	entShapes  map[int][]int

	gfholds     map[staffMeas]GFHold
	firstClef   map[int]int
	firstFrame1 map[int]int
	frames      map[int][]FrameSpec

	entries    map[int]Entry
	noteAlters map[int]map[int]NoteAlter
	tuplets    map[int][]TupletDef
	artics     map[int][]int
	articDefs  map[int]ArticDef
}

// Parse reads an EnigmaXML document.
func Parse(r io.Reader) (*Store, error) {
	doc, err := xmldom.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse score markup")
	}
	return Load(doc.Root)
}

// Load indexes an already parsed EnigmaXML tree.
func Load(root *xmldom.Node) (*Store, error) {
	if root == nil || root.Name != "finale" {
		return nil, ErrNotFinale
	}

	s := &Store{
		clefs:       map[int]ClefDef{},
		textBlocks:  map[int]TextBlock{},
		blockTexts:  map[int]string{},
		exprTexts:   map[int]string{},
		exprAssigns: map[int][]ExprAssign{},
		exprDefs:    map[int]TextExprDef{},
		categories:  map[int]Category{},
		shapes:      map[int]SmartShape{},
		measShapes:  map[int][]int{},
		entShapes:   map[int][]int{},
		gfholds:     map[staffMeas]GFHold{},
		firstClef:   map[int]int{},
		firstFrame1: map[int]int{},
		frames:      map[int][]FrameSpec{},
		entries:     map[int]Entry{},
		noteAlters:  map[int]map[int]NoteAlter{},
		tuplets:     map[int][]TupletDef{},
		artics:      map[int][]int{},
		articDefs:   map[int]ArticDef{},
	}

	var r fieldReader
	for _, section := range root.Children {
		for _, n := range section.Children {
			// Linked part records duplicate score records.
			if hasAttr(n, "part") {
				continue
			}
			switch section.Name {
			case "options":
				s.loadOption(&r, n)
			case "others":
				s.loadOther(&r, n)
			case "details":
				s.loadDetail(&r, n)
			case "entries":
				if n.Name == "entry" {
					s.loadEntry(&r, n)
				}
			case "texts":
				s.loadText(&r, n)
			}
			if r.err != nil {
				return nil, errors.Wrapf(r.err, "read %s/%s", section.Name, n.Name)
			}
		}
	}
	return s, nil
}

func (s *Store) loadOption(r *fieldReader, n *xmldom.Node) {
	switch n.Name {
	case "timeSignatureOptions":
		s.options.AbbreviateCommon = has(n, "timeSigDoAbrvCommon")
		s.options.AbbreviateCut = has(n, "timeSigDoAbrvCut")
	case "playbackOptions":
		bpm, okBPM := r.num(n, "beatsPerMinute")
		epb, okEPB := r.num(n, "edusPerBeat")
		s.options.BeatsPerMinute = bpm
		s.options.EdusPerBeat = epb
		s.options.HasPlayback = okBPM && okEPB
	case "clefOptions":
		for _, c := range children(n, "clefDef") {
			char, ok := r.num(c, "clefChar")
			s.clefs[r.attr(c, "index")] = ClefDef{
				Char:    char,
				HasChar: ok,
				YDisp:   r.numOr(c, "clefYDisp", 0),
			}
		}
	}
}

func (s *Store) loadOther(r *fieldReader, n *xmldom.Node) {
	switch n.Name {
	case "staffSpec":
		cmper := r.attr(n, "cmper")
		if cmper == NoStaff {
			return
		}
		full, hasFull := r.num(n, "fullName")
		abbrv, hasAbbrv := r.num(n, "abbrvName")
		s.staves = append(s.staves, StaffSpec{
			Cmper:        cmper,
			FullNameID:   full,
			HasFullName:  hasFull,
			AbbrvNameID:  abbrv,
			HasAbbrvName: hasAbbrv,
			KeyAdjust:    r.numOr(n, "transposition/keysig/adjust", 0),
			Interval:     r.numOr(n, "transposition/keysig/interval", 0),
		})
	case "measSpec":
		if hasAttr(n, "shared") {
			return
		}
		m := MeasSpec{
			Cmper:          r.attr(n, "cmper"),
			Beats:          r.numOr(n, "beats", 4),
			Divbeat:        r.numOr(n, "divbeat", 1024),
			Barline:        "normal",
			ForwardRepeat:  has(n, "forRepBar"),
			BackwardRepeat: has(n, "bacRepBar"),
			Ending:         has(n, "barEnding"),
			HasSmartShape:  has(n, "hasSmartShape"),
			HasExpr:        has(n, "hasExpr"),
		}
		if key, ok := r.num(n, "keySig/key"); ok {
			m.Key.Code, m.Key.Valid = key, true
		}
		if b, ok := text(n, "barline"); ok {
			m.Barline = b
		}
		s.measures = append(s.measures, m)
	case "textBlock":
		cmper := r.attr(n, "cmper")
		if _, dup := s.textBlocks[cmper]; dup {
			return
		}
		tag, _ := text(n, "textTag")
		s.textBlocks[cmper] = TextBlock{TextID: r.numOr(n, "textID", 0), Tag: tag}
	case "measExprAssign":
		id, ok := r.num(n, "textExprID")
		if !ok {
			return
		}
		cmper := r.attr(n, "cmper")
		s.exprAssigns[cmper] = append(s.exprAssigns[cmper], ExprAssign{
			TextExprID:  id,
			StaffAssign: r.numOr(n, "staffAssign", 0),
		})
	case "textExprDef":
		def := TextExprDef{
			TextIDKey:  r.numOr(n, "textIDKey", 0),
			CategoryID: r.numOr(n, "categoryID", 0),
		}
		def.Value, def.HasValue = r.num(n, "value")
		def.Desc, _ = text(n, "descStr")
		s.exprDefs[r.attr(n, "cmper")] = def
	case "markingsCategory":
		ct, _ := text(n, "categoryType")
		s.categories[r.attr(n, "cmper")] = categoryOf(ct)
	case "smartShapeMeasMark":
		if num, ok := r.num(n, "shapeNum"); ok {
			cmper := r.attr(n, "cmper")
			s.measShapes[cmper] = append(s.measShapes[cmper], num)
		}
	case "smartShape":
		kind, _ := text(n, "shapeType")
		cmper := r.attr(n, "cmper")
		s.shapes[cmper] = SmartShape{
			Cmper: cmper,
			Kind:  shapeKindOf(kind),
			Start: readEndPoint(r, child(n, "startTermSeg/endPt")),
			End:   readEndPoint(r, child(n, "endTermSeg/endPt")),
		}
	case "frameSpec":
		start, okStart := r.num(n, "startEntry")
		end, okEnd := r.num(n, "endEntry")
		if okStart && okEnd {
			cmper := r.attr(n, "cmper")
			s.frames[cmper] = append(s.frames[cmper], FrameSpec{StartEntry: start, EndEntry: end})
		}
	case "articDef":
		s.articDefs[r.attr(n, "cmper")] = ArticDef{
			CharMain: r.numOr(n, "charMain", 0),
			CharAlt:  r.numOr(n, "charAlt", 0),
		}
	}
}

func readEndPoint(r *fieldReader, n *xmldom.Node) EndPoint {
	if n == nil {
		return EndPoint{}
	}
	p := EndPoint{
		Meas: r.numOr(n, "meas", 0),
		Inst: r.numOr(n, "inst", 0),
	}
	p.Entry, p.HasEntry = r.num(n, "entryNum")
	return p
}

func (s *Store) loadDetail(r *fieldReader, n *xmldom.Node) {
	switch n.Name {
	case "staffGroup":
		g := StaffGroup{
			StartInst: r.numOr(n, "startInst", 0),
			EndInst:   r.numOr(n, "endInst", 0),
			StartMeas: r.numOr(n, "startMeas", 0),
			EndMeas:   r.numOr(n, "endMeas", 0),
			BracketID: r.numOr(n, "bracket/id", 0),
		}
		g.FullID, g.HasFullID = r.num(n, "fullID")
		g.AbbrvID, g.HasAbbrvID = r.num(n, "abbrvID")
		s.groups = append(s.groups, g)
	case "gfhold":
		g := GFHold{
			Staff: r.attr(n, "cmper1"),
			Meas:  r.attr(n, "cmper2"),
		}
		g.ClefID, g.HasClef = r.num(n, "clefID")
		for i := range g.Frames {
			g.Frames[i] = r.numOr(n, frameNames[i], 0)
		}
		key := staffMeas{g.Staff, g.Meas}
		if _, dup := s.gfholds[key]; dup {
			return
		}
		s.gfholds[key] = g
		if _, seen := s.firstClef[g.Staff]; !seen && g.HasClef {
			s.firstClef[g.Staff] = g.ClefID
		}
		if _, seen := s.firstFrame1[g.Meas]; !seen && g.Frames[0] != 0 {
			s.firstFrame1[g.Meas] = g.Frames[0]
		}
	case "noteAlter":
		id, ok := r.num(n, "noteID")
		if !ok {
			return
		}
		entnum := r.attr(n, "entnum")
		if s.noteAlters[entnum] == nil {
			s.noteAlters[entnum] = map[int]NoteAlter{}
		}
		s.noteAlters[entnum][id] = NoteAlter{
			Enharmonic: has(n, "enharmonic"),
			Percent:    r.numOr(n, "percent", 0),
		}
	case "tupletDef":
		entnum := r.attr(n, "entnum")
		s.tuplets[entnum] = append(s.tuplets[entnum], TupletDef{
			SymbolicNum: r.numOr(n, "symbolicNum", 0),
			SymbolicDur: r.numOr(n, "symbolicDur", 0),
			RefNum:      r.numOr(n, "refNum", 0),
			RefDur:      r.numOr(n, "refDur", 0),
		})
	case "articAssign":
		if def, ok := r.num(n, "articDef"); ok {
			entnum := r.attr(n, "entnum")
			s.artics[entnum] = append(s.artics[entnum], def)
		}
	case "smartShapeEntryMark":
		if num, ok := r.num(n, "shapeNum"); ok {
			entnum := r.attr(n, "entnum")
			s.entShapes[entnum] = append(s.entShapes[entnum], num)
		}
	}
}

var frameNames = [4]string{"frame1", "frame2", "frame3", "frame4"}

func (s *Store) loadEntry(r *fieldReader, n *xmldom.Node) {
	e := Entry{
		Num:              r.attr(n, "entnum"),
		Dura:             r.numOr(n, "dura", 0),
		IsNote:           has(n, "isNote"),
		NoteDetail:       has(n, "noteDetail"),
		ArticDetail:      has(n, "articDetail"),
		Grace:            has(n, "graceNote"),
		TupletStart:      has(n, "tupletStart"),
		SmartShapeDetail: has(n, "smartShapeDetail"),
	}
	if next := n.GetAttributeValue("next"); next != "" {
		e.Next = r.atoi(next, "entry@next")
	}
	for _, c := range children(n, "note") {
		e.Notes = append(e.Notes, Note{
			ID:       r.attr(c, "id"),
			HarmLev:  r.numOr(c, "harmLev", 0),
			HarmAlt:  r.numOr(c, "harmAlt", 0),
			TieStart: has(c, "tieStart"),
			TieEnd:   has(c, "tieEnd"),
		})
	}
	s.entries[e.Num] = e
}

func (s *Store) loadText(r *fieldReader, n *xmldom.Node) {
	switch n.Name {
	case "blockText":
		s.blockTexts[r.attr(n, "number")] = n.Text
	case "expression":
		s.exprTexts[r.attr(n, "number")] = n.Text
	}
}

// Options returns the document options.
func (s *Store) Options() Options { return s.options }

// Staves returns the staff records in document order, without the
// placeholder staff.
func (s *Store) Staves() []StaffSpec { return s.staves }

// Groups returns the score staff groups.
func (s *Store) Groups() []StaffGroup { return s.groups }

// Measures returns the measure records in document order.
func (s *Store) Measures() []MeasSpec { return s.measures }

func (s *Store) ClefDef(index int) (ClefDef, bool) {
	c, ok := s.clefs[index]
	return c, ok
}

func (s *Store) TextBlock(cmper int) (TextBlock, bool) {
	b, ok := s.textBlocks[cmper]
	return b, ok
}

func (s *Store) BlockText(number int) (string, bool) {
	t, ok := s.blockTexts[number]
	return t, ok
}

func (s *Store) ExpressionText(number int) (string, bool) {
	t, ok := s.exprTexts[number]
	return t, ok
}

// MeasureExpressions returns the expressions assigned to a measure.
func (s *Store) MeasureExpressions(meas int) []ExprAssign { return s.exprAssigns[meas] }

func (s *Store) TextExprDef(cmper int) (TextExprDef, bool) {
	d, ok := s.exprDefs[cmper]
	return d, ok
}

func (s *Store) Category(cmper int) (Category, bool) {
	c, ok := s.categories[cmper]
	return c, ok
}

// MeasureShapes returns the smart shape numbers attached to a measure.
func (s *Store) MeasureShapes(meas int) []int { return s.measShapes[meas] }

// EntryShapes returns the smart shape numbers attached to an entry.
func (s *Store) EntryShapes(entnum int) []int { return s.entShapes[entnum] }

func (s *Store) SmartShape(cmper int) (SmartShape, bool) {
	sh, ok := s.shapes[cmper]
	return sh, ok
}

// GFHold returns the frame table of a staff in a measure.
func (s *Store) GFHold(staff, meas int) (GFHold, bool) {
	g, ok := s.gfholds[staffMeas{staff, meas}]
	return g, ok
}

// FirstClef returns the first clef a staff is given anywhere in the
// document.
func (s *Store) FirstClef(staff int) (int, bool) {
	c, ok := s.firstClef[staff]
	return c, ok
}

// DefaultFrame returns the layer 1 frame of the first staff holding music in
// a measure.
func (s *Store) DefaultFrame(meas int) (int, bool) {
	f, ok := s.firstFrame1[meas]
	return f, ok
}

// Frames returns the complete frame records with the given cmper.
func (s *Store) Frames(cmper int) []FrameSpec { return s.frames[cmper] }

func (s *Store) Entry(entnum int) (Entry, bool) {
	e, ok := s.entries[entnum]
	return e, ok
}

func (s *Store) NoteAlter(entnum, noteID int) (NoteAlter, bool) {
	a, ok := s.noteAlters[entnum][noteID]
	return a, ok
}

func (s *Store) TupletDefs(entnum int) []TupletDef { return s.tuplets[entnum] }

// Articulations returns the articulation definition ids assigned to an
// entry.
func (s *Store) Articulations(entnum int) []int { return s.artics[entnum] }

func (s *Store) ArticDef(cmper int) (ArticDef, bool) {
	a, ok := s.articDefs[cmper]
	return a, ok
}

// WalkChain calls fn for each entry from start to end inclusive, following
// the next links. A missing entry ends the walk without error. A chain that
// revisits entries without reaching end returns ErrUnterminatedChain.
func (s *Store) WalkChain(start, end int, fn func(Entry) error) error {
	cur := start
	for steps := 0; ; steps++ {
		e, ok := s.entries[cur]
		if !ok {
			return nil
		}
		if steps >= len(s.entries) {
			return errors.Wrapf(ErrUnterminatedChain, "entries %d to %d", start, end)
		}
		if err := fn(e); err != nil {
			return err
		}
		if cur == end || e.Next == 0 {
			return nil
		}
		cur = e.Next
	}
}
