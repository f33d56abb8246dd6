package theory

// Transpose is the MusicXML transposition of an instrument: the interval
// from written to sounding pitch.
type Transpose struct {
	Diatonic     int
	Chromatic    int
	OctaveChange int
}

// IsZero reports whether the transposition is the identity.
func (t Transpose) IsZero() bool {
	return t == Transpose{}
}

// TransposeInterval converts a Finale diatonic interval, which goes from
// concert to written pitch, into a MusicXML transposition, which goes the
// other way. Steps above a third gain a half step less to account for E-F.
func TransposeInterval(interval int) Transpose {
	up := false
	if interval < 0 {
		up = true
		interval = -interval
	}

	octaves := interval / 7
	diatonic := interval % 7
	chromatic := diatonic * 2
	if diatonic > 2 {
		chromatic--
	}

	if up {
		return Transpose{Diatonic: diatonic, Chromatic: chromatic, OctaveChange: octaves}
	}
	return Transpose{Diatonic: -diatonic, Chromatic: -chromatic, OctaveChange: -octaves}
}
