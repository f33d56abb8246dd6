// Package finale reads an EnigmaXML document, the markup form of a Finale
// score, into an indexed read-only record store.
package finale

import "github.com/james-see/musx2mxl/pkg/converter/theory"

// NoStaff is the cmper Finale uses for its placeholder staff record.
const NoStaff = 32767

// PianoBrace is the bracket style id of a piano brace.
const PianoBrace = 3

// Options holds the document wide settings the conversion consumes.
type Options struct {
	AbbreviateCommon bool
	AbbreviateCut    bool
	BeatsPerMinute   int
	EdusPerBeat      int
	HasPlayback      bool
}

// ClefDef is one entry of the document clef table.
type ClefDef struct {
	Char    int
	HasChar bool
	YDisp   int
}

// StaffSpec is a staff (Finale "instrument") record.
type StaffSpec struct {
	Cmper        int
	FullNameID   int
	HasFullName  bool
	AbbrvNameID  int
	HasAbbrvName bool
	KeyAdjust    int
	Interval     int
}

// StaffGroup is a bracket spanning staves StartInst..EndInst.
type StaffGroup struct {
	StartInst  int
	EndInst    int
	StartMeas  int
	EndMeas    int
	FullID     int
	HasFullID  bool
	AbbrvID    int
	HasAbbrvID bool
	BracketID  int
}

// Contains reports whether the group spans the staff.
func (g StaffGroup) Contains(staff int) bool {
	return g.StartInst <= staff && staff <= g.EndInst
}

// IsPianoBrace reports whether the group is a piano brace over more than
// one staff.
func (g StaffGroup) IsPianoBrace() bool {
	return g.BracketID == PianoBrace && g.StartInst != g.EndInst
}

// TextBlock links a text id to its stored text.
type TextBlock struct {
	TextID int
	Tag    string
}

// MeasSpec is a measure record shared by all staves.
type MeasSpec struct {
	Cmper          int
	Beats          int
	Divbeat        int
	Key            theory.Key
	Barline        string
	ForwardRepeat  bool
	BackwardRepeat bool
	Ending         bool
	HasSmartShape  bool
	HasExpr        bool
}

// ShapeKind is the type of a smart shape.
type ShapeKind int

const (
	ShapeOther ShapeKind = iota
	Crescendo
	Decrescendo
	SlurAuto
	SlurUp
)

// IsSlur reports whether the kind is one of the rendered slur kinds.
func (k ShapeKind) IsSlur() bool {
	return k == SlurAuto || k == SlurUp
}

func shapeKindOf(s string) ShapeKind {
	switch s {
	case "cresc":
		return Crescendo
	case "decresc":
		return Decrescendo
	case "slurAuto":
		return SlurAuto
	case "slurUp":
		return SlurUp
	default:
		return ShapeOther
	}
}

// EndPoint anchors one side of a smart shape.
type EndPoint struct {
	Meas     int
	Inst     int
	Entry    int
	HasEntry bool
}

// SmartShape is a shape spanning from Start to End, such as a slur or a
// hairpin.
type SmartShape struct {
	Cmper int
	Kind  ShapeKind
	Start EndPoint
	End   EndPoint
}

// ExprAssign places a text expression on a measure.
type ExprAssign struct {
	TextExprID  int
	StaffAssign int
}

// TextExprDef is the definition of a text expression.
type TextExprDef struct {
	TextIDKey  int
	CategoryID int
	Value      int
	HasValue   bool
	Desc       string
}

// Category is the marking category an expression belongs to.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryDynamics
	CategoryMisc
	CategoryTempoAlterations
	CategoryExpressiveText
	CategoryTechniqueText
	CategoryTempoMarks
	CategoryRehearsalMarks
)

var categoryNames = map[string]Category{
	"dynamics":       CategoryDynamics,
	"misc":           CategoryMisc,
	"tempoAlts":      CategoryTempoAlterations,
	"expressiveText": CategoryExpressiveText,
	"techniqueText":  CategoryTechniqueText,
	"tempoMarks":     CategoryTempoMarks,
	"rehearsalMarks": CategoryRehearsalMarks,
}

func categoryOf(s string) Category {
	return categoryNames[s]
}

func (c Category) String() string {
	for name, cat := range categoryNames {
		if cat == c {
			return name
		}
	}
	return "unknown"
}

// GFHold is the frame table of one staff in one measure.
type GFHold struct {
	Staff   int
	Meas    int
	ClefID  int
	HasClef bool
	// Frames holds the frameSpec cmper of layers 1 to 4; zero means the
	// layer is empty.
	Frames [4]int
}

// HasFrames reports whether any layer of the measure holds music.
func (g GFHold) HasFrames() bool {
	return g.Frames != [4]int{}
}

// FrameSpec bounds the entry chain of one layer.
type FrameSpec struct {
	StartEntry int
	EndEntry   int
}

// Note is one pitch of an entry.
type Note struct {
	ID       int
	HarmLev  int
	HarmAlt  int
	TieStart bool
	TieEnd   bool
}

// Entry is one rhythmic event: a rest, a single note or a chord. Entries
// form a singly linked chain through Next.
type Entry struct {
	Num              int
	Next             int
	Dura             int
	IsNote           bool
	NoteDetail       bool
	ArticDetail      bool
	Grace            bool
	TupletStart      bool
	SmartShapeDetail bool
	Notes            []Note
}

// NoteAlter carries per-note display overrides.
type NoteAlter struct {
	Enharmonic bool
	Percent    int
}

// TupletDef describes a tuplet starting on an entry.
type TupletDef struct {
	SymbolicNum int
	SymbolicDur int
	RefNum      int
	RefDur      int
}

// ArticDef is an articulation definition.
type ArticDef struct {
	CharMain int
	CharAlt  int
}
