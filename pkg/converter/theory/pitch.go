package theory

// Steps lists the natural note names in enumeration order.
var Steps = [7]string{"C", "D", "E", "F", "G", "A", "B"}

var semitones = map[string]int{"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11}

// Pitch is a spelled pitch. Alter is a signed semitone offset.
type Pitch struct {
	Step   string
	Alter  int
	Octave int
}

// PitchOf spells a note stored as a harmonic level relative to the key.
//
// harmLev counts diatonic steps from the tonic, harmAlt is the chromatic
// alteration relative to the key signature. keyAdjust and interval come from
// the staff transposition; respell swaps to the enharmonic spelling.
func PitchOf(harmLev, harmAlt int, key Key, keyAdjust, interval int, respell bool) Pitch {
	mode, fifths := KeyFifthsAndMode(key, keyAdjust)
	if mode == Minor {
		harmLev -= 2
	}
	step := Steps[floorMod(harmLev+4*fifths, 7)]

	_, concertFifths := KeyFifthsAndMode(key, 0)
	octave := 4 + floorDiv(harmLev+floorMod(4*concertFifths, 7)+interval, 7)

	alter := harmAlt + AlterForStep(step, fifths)
	if respell {
		step, alter = Enharmonic(step, alter)
	}
	return Pitch{Step: step, Alter: alter, Octave: octave}
}

// Enharmonic returns the spelling with a different letter that sounds the
// same pitch class and has the smallest accidental. Ties go to the letter
// that comes first in C..B order.
func Enharmonic(step string, alter int) (string, int) {
	pc := floorMod(semitones[step]+alter, 12)

	bestStep, bestAlter := step, alter
	found := false
	for _, s := range Steps {
		if s == step {
			continue
		}
		diff := floorMod(pc-semitones[s]+6, 12) - 6
		if !found || abs(diff) < abs(bestAlter) {
			bestStep, bestAlter = s, diff
			found = true
		}
	}
	return bestStep, bestAlter
}

// MIDIKey returns the MIDI note number of the pitch, middle C being 60.
func (p Pitch) MIDIKey() int {
	return (p.Octave+1)*12 + semitones[p.Step] + p.Alter
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
