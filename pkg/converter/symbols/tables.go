// Package symbols maps Finale font glyph codes and style names to their
// MusicXML meaning. The glyph codes are those of the Engraver and SMuFL
// fonts as stored in Finale documents.
package symbols

// Clef is a MusicXML clef sign with its octave change.
type Clef struct {
	Sign         string
	OctaveChange int
}

// DefaultClef is used when a clef glyph is not recognized.
var DefaultClef = Clef{Sign: "G"}

var clefs = map[int]Clef{
	38:  {"G", 0},
	63:  {"F", 0},
	66:  {"C", 0},
	86:  {"G", -1},
	116: {"F", -1},
	160: {"G", 1},
	139: {"percussion", 0},
	214: {"percussion", 0},
	230: {"F", 1},

	57424: {"G", 0},
	57425: {"G", -2},
	57426: {"G", -1},
	57427: {"G", 1},
	57428: {"G", 2},
	57429: {"G", -1},
	57430: {"G", 0},
	57431: {"G", 0},
	57432: {"G", 0},
	57433: {"G", 0},
	57434: {"G", 0},
	57435: {"G", 0},
	57436: {"C", 0},
	57437: {"C", -1},
	57438: {"C", 0},
	57439: {"C", 0},
	57440: {"C", 0},
	57441: {"C", 0},
	57442: {"F", 0},
	57443: {"F", -2},
	57444: {"F", -1},
	57445: {"F", 1},
	57446: {"F", 2},
	57447: {"F", 0},
	57448: {"F", 0},
	57449: {"percussion", 0},
	57450: {"percussion", 0},
	57451: {"percussion", 0},
	57452: {"percussion", 0},
}

// ClefForChar returns the clef for a clef glyph. ok is false when the glyph
// is unknown and DefaultClef was returned.
func ClefForChar(char int) (Clef, bool) {
	c, ok := clefs[char]
	if !ok {
		return DefaultClef, false
	}
	return c, true
}

// Articulation is a MusicXML articulation element name with an optional
// type attribute.
type Articulation struct {
	Name string
	Type string
}

// OtherArticulation stands in for articulation glyphs with no mapping.
var OtherArticulation = Articulation{Name: "other-articulation"}

// Negative codes have no known glyph yet; they keep the table complete.
var articulations = map[int]Articulation{
	62:  {"accent", ""},
	94:  {"strong-accent", "up"},
	118: {"strong-accent", "down"},
	46:  {"staccato", ""},
	95:  {"tenuto", ""},
	248: {"detached-legato", ""},
	224: {"staccatissimo", ""},
	-1:  {"spiccato", ""},
	-2:  {"scoop", ""},
	103: {"plop", ""},
	-5:  {"doit", ""},
	-4:  {"falloff", ""},
	44:  {"breath-mark", ""},
	34:  {"caesura", ""},
	-8:  {"stress", ""},
	-9:  {"unstress", ""},
	-10: {"soft-accent", ""},
}

// ArticulationForChar returns the articulation for a glyph code.
func ArticulationForChar(char int) Articulation {
	if a, ok := articulations[char]; ok {
		return a
	}
	return OtherArticulation
}

var dynamics = map[rune]string{
	112: "p",
	185: "pp",
	184: "ppp",
	175: "pppp",
	102: "f",
	196: "ff",
	236: "fff",
	235: "ffff",
	80:  "mp",
	70:  "mf",
	83:  "sf",
	130: "sfp",
	182: "sfpp",
	234: "fp",
	167: "sfz",
	141: "sffz",
	90:  "fz",
}

// Dynamic recognizes expression text made of a single dynamics glyph and
// returns the MusicXML dynamics element name.
func Dynamic(text string) (string, bool) {
	r := []rune(RemoveStylingTags(text))
	if len(r) != 1 {
		return "", false
	}
	name, ok := dynamics[r[0]]
	return name, ok
}

var barStyles = map[string]string{
	"none":    "none",
	"normal":  "regular",
	"double":  "light-light",
	"final":   "light-heavy",
	"solid":   "heavy",
	"dash":    "dashed",
	"partial": "tick",
}

// BarStyle returns the MusicXML bar-style for a Finale barline type. A
// backward repeat or a closing ending always gets a final-style barline.
func BarStyle(barline string, backwardRepeat, ending bool) string {
	if backwardRepeat || ending {
		return "light-heavy"
	}
	if s, ok := barStyles[barline]; ok {
		return s
	}
	return "regular"
}

// noteTypeChars are the Engraver text glyphs used for notes in tempo marks.
var noteTypeChars = map[string]string{
	"x": "16th",
	"e": "eighth",
	"q": "quarter",
	"h": "half",
}
