package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarStyle(t *testing.T) {
	tests := []struct {
		barline  string
		backward bool
		ending   bool
		want     string
	}{
		{"none", false, false, "none"},
		{"normal", false, false, "regular"},
		{"double", false, false, "light-light"},
		{"final", false, false, "light-heavy"},
		{"solid", false, false, "heavy"},
		{"dash", false, false, "dashed"},
		{"partial", false, false, "tick"},
		{"custom", false, false, "regular"},
		{"", false, false, "regular"},
		{"dash", true, false, "light-heavy"},
		{"none", false, true, "light-heavy"},
	}

	for _, tt := range tests {
		t.Run(tt.barline, func(t *testing.T) {
			assert.Equal(t, tt.want, BarStyle(tt.barline, tt.backward, tt.ending))
		})
	}
}

func TestArticulationForChar(t *testing.T) {
	assert.Equal(t, Articulation{"accent", ""}, ArticulationForChar(62))
	assert.Equal(t, Articulation{"strong-accent", "up"}, ArticulationForChar(94))
	assert.Equal(t, Articulation{"strong-accent", "down"}, ArticulationForChar(118))
	assert.Equal(t, Articulation{"staccato", ""}, ArticulationForChar(46))
	assert.Equal(t, Articulation{"breath-mark", ""}, ArticulationForChar(44))
	assert.Equal(t, OtherArticulation, ArticulationForChar(12345))
}

func TestDynamic(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"p", "p", true},
		{"f", "f", true},
		{"¹", "pp", true},
		{"^fontMus(Font0,0)^size(24)^nfx(0)F", "mf", true},
		{"Z", "fz", true},
		{"dolce", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Dynamic(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClefForChar(t *testing.T) {
	c, ok := ClefForChar(38)
	assert.True(t, ok)
	assert.Equal(t, Clef{"G", 0}, c)

	c, ok = ClefForChar(57425)
	assert.True(t, ok)
	assert.Equal(t, Clef{"G", -2}, c)

	c, ok = ClefForChar(230)
	assert.True(t, ok)
	assert.Equal(t, Clef{"F", 1}, c)

	c, ok = ClefForChar(1)
	assert.False(t, ok)
	assert.Equal(t, DefaultClef, c)
}

func TestRemoveStylingTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Violin", "Violin"},
		{"font and size", "^fontTxt(Times New Roman,4096)^size(12)^nfx(0)Piano", "Piano"},
		{"baseline", "^baseline(2) Flute ", "Flute"},
		{"keeps music inserts", "Clarinet in B^flat()", "Clarinet in B^flat()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveStylingTags(tt.in))
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Clarinet in B♭", CleanText("^fontTxt(Arial,0)Clarinet in B^flat()"))
	assert.Equal(t, "F♯ ♮", CleanText("F^sharp() ^natural()"))
}

func TestParseTempoMark(t *testing.T) {
	tests := []struct {
		name string
		text string
		want TempoMark
	}{
		{
			name: "words with approximate bracketed tempo",
			text: "a(l)egro ( q = ca. 120 } help",
			want: TempoMark{
				Words:       "a(l)egro help",
				BeatUnit:    "quarter",
				PerMinute:   "c. 120",
				Parentheses: true,
				Parsed:      true,
			},
		},
		{
			name: "plain metronome",
			text: "q = 96",
			want: TempoMark{BeatUnit: "quarter", PerMinute: "96", Parsed: true},
		},
		{
			name: "dotted half with words",
			text: "^fontTxt(Times,0)Allegro hd = 60",
			want: TempoMark{Words: "Allegro", BeatUnit: "half", Dotted: true, PerMinute: "60", Parsed: true},
		},
		{
			name: "maelzel metronome",
			text: "Vivace m e = 132",
			want: TempoMark{Words: "Vivace M. M.", BeatUnit: "eighth", PerMinute: "132", Parsed: true},
		},
		{
			name: "single bracket is not parentheses",
			text: "(q = 80",
			want: TempoMark{BeatUnit: "quarter", PerMinute: "80", Parsed: true},
		},
		{
			name: "no metronome",
			text: "Andante",
			want: TempoMark{Words: "Andante"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTempoMark(tt.text))
		})
	}
}
