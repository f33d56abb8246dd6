package symbols

import (
	"regexp"
	"strings"
)

var stylingTags = regexp.MustCompile(`\^(?:font|fontid|Font|fontMus|fontTxt|fontNum|size|nfx|baseline)\([^)]*\)`)

// RemoveStylingTags strips Finale text insert commands such as ^font(...)
// and ^size(...) and trims the result.
func RemoveStylingTags(text string) string {
	return strings.TrimSpace(stylingTags.ReplaceAllString(text, ""))
}

var musicSymbols = strings.NewReplacer(
	"^flat()", "♭",
	"^sharp()", "♯",
	"^natural()", "♮",
)

// ReplaceMusicSymbols turns accidental inserts into their Unicode symbols.
func ReplaceMusicSymbols(text string) string {
	return musicSymbols.Replace(text)
}

// CleanText is the display form of a Finale text block.
func CleanText(text string) string {
	return ReplaceMusicSymbols(RemoveStylingTags(text))
}

var tempoMark = regexp.MustCompile(`^(.*?\s+)?([({]\s*)?(m\s+)?([xeqh])([d|.])?\s*=\s*(c[a.]{0,2}\s+)?(\d+)(\s*[)}])?(\s+.*)?`)

// TempoMark is a tempo marking such as "Allegro q = 120" split into its
// words and metronome parts.
type TempoMark struct {
	Words       string
	BeatUnit    string
	Dotted      bool
	PerMinute   string
	Parentheses bool
	// Parsed is false when the text did not look like a metronome mark; Words
	// then holds the whole text.
	Parsed bool
}

// ParseTempoMark parses the text of a tempo expression.
func ParseTempoMark(text string) TempoMark {
	plain := RemoveStylingTags(text)
	m := tempoMark.FindStringSubmatch(plain)
	if m == nil {
		return TempoMark{Words: plain}
	}

	var words []string
	if prefix := strings.TrimSpace(m[1]); prefix != "" {
		words = append(words, prefix)
	}
	if postfix := strings.TrimSpace(m[9]); postfix != "" {
		words = append(words, postfix)
	}
	if m[3] != "" {
		words = append(words, "M. M.")
	}

	perMinute := m[7]
	if m[6] != "" {
		perMinute = "c. " + perMinute
	}

	return TempoMark{
		Words:       strings.Join(words, " "),
		BeatUnit:    noteTypeChars[m[4]],
		Dotted:      m[5] != "",
		PerMinute:   perMinute,
		Parentheses: m[2] != "" && m[8] != "",
		Parsed:      true,
	}
}

// LooksLikeTempo reports whether text appears to contain a metronome mark.
func LooksLikeTempo(text string) bool {
	return strings.Contains(text, "=")
}
