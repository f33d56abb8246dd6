// Package theory derives notated pitch, key and rhythm values from the compact
// numeric codes stored in Finale documents. Everything here is pure.
package theory

// Mode is a key mode as written in MusicXML.
type Mode string

const (
	Major Mode = "major"
	Minor Mode = "minor"
)

// SharpsAndFlats is the order in which sharps are added to a key signature.
// Flats are added in the reverse order.
var SharpsAndFlats = [7]string{"F", "C", "G", "D", "A", "E", "B"}

// Key is a Finale key signature code. The zero value is the absent key,
// which Finale uses for C major.
type Key struct {
	Code  int
	Valid bool
}

// KeyOf returns the key for a stored key code.
func KeyOf(code int) Key {
	return Key{Code: code, Valid: true}
}

// KeyFifthsAndMode converts a key code to a mode and a signed count of
// fifths, then applies the transposition adjustment of the staff.
//
//	absent         -> C major
//	1 ... 7        -> G major ... C# major
//	255 ... 249    -> F major ... Cb major
//	256            -> A minor
//	257 ... 263    -> E minor ... A# minor
//	511 ... 505    -> D minor ... Ab minor
//
// The result is folded back into [-7, 7] by one octave of fifths.
func KeyFifthsAndMode(key Key, adjust int) (Mode, int) {
	mode := Major
	fifths := 0
	if key.Valid {
		if key.Code >= 256 {
			mode = Minor
		}
		switch {
		case key.Code > 384:
			fifths = key.Code - 512
		case key.Code > 128:
			fifths = key.Code - 256
		default:
			fifths = key.Code
		}
	}

	fifths += adjust
	if fifths > 7 {
		fifths -= 12
	}
	if fifths < -7 {
		fifths += 12
	}
	return mode, fifths
}

// AlterForStep returns the alteration the key signature applies to a step.
func AlterForStep(step string, fifths int) int {
	switch {
	case fifths > 0:
		for _, s := range SharpsAndFlats[:min(fifths, 7)] {
			if s == step {
				return 1
			}
		}
	case fifths < 0:
		for _, s := range SharpsAndFlats[7-min(-fifths, 7):] {
			if s == step {
				return -1
			}
		}
	}
	return 0
}
