package theory

const (
	// Divisions is the number of MusicXML divisions per quarter note.
	Divisions = 4
	// EDUsPerQuarter is Finale's internal resolution for a quarter note.
	EDUsPerQuarter = 1024
)

// noteTypes maps each duration bit to its note value, most significant first.
var noteTypes = [14]struct {
	flag int
	name string
}{
	{32768, "maxima"}, {16384, "long"}, {8192, "breve"}, {4096, "whole"},
	{2048, "half"}, {1024, "quarter"}, {512, "eighth"}, {256, "16th"},
	{128, "32nd"}, {64, "64th"}, {32, "128th"}, {16, "256th"},
	{8, "512th"}, {4, "1024th"},
}

// DurationTypeAndDots splits a duration into its note value and number of
// augmentation dots. The highest set bit names the value and each directly
// following set bit adds a dot; bits after the first gap are ignored.
// An empty name means no bit matched.
func DurationTypeAndDots(edus int) (string, int) {
	name := ""
	dots := 0
	for _, t := range noteTypes {
		if edus&t.flag != 0 {
			if name == "" {
				name = t.name
			} else {
				dots++
			}
		} else if name != "" {
			break
		}
	}
	return name, dots
}

// ToDivisions converts a duration in EDUs to MusicXML divisions.
func ToDivisions(edus int) int {
	return edus * Divisions / EDUsPerQuarter
}

// MeasureDivisions is the length of a measure of beats × divbeat EDUs.
func MeasureDivisions(beats, divbeat int) int {
	return beats * divbeat * Divisions / EDUsPerQuarter
}

// TimeSignature returns the displayed numerator and denominator for a
// measure of beats beats of divbeat EDUs each. Dotted beat units are shown
// as compound meter, so two dotted quarters become 6/8.
func TimeSignature(beats, divbeat int) (int, int) {
	const whole = 4 * EDUsPerQuarter
	switch {
	case divbeat <= 0:
		return beats, 4
	case whole%divbeat == 0:
		return beats, whole / divbeat
	case divbeat%3 == 0 && whole%(divbeat/3) == 0:
		return beats * 3, whole / (divbeat / 3)
	}
	return beats, 4
}
