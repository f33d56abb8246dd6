package theory

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFifthsAndMode(t *testing.T) {
	tests := []struct {
		name       string
		key        Key
		adjust     int
		wantMode   Mode
		wantFifths int
	}{
		{"absent key", Key{}, 0, Major, 0},
		{"A minor", KeyOf(256), 0, Minor, 0},
		{"E minor", KeyOf(257), 0, Minor, 1},
		{"D minor", KeyOf(511), 0, Minor, -1},
		{"F major", KeyOf(255), 0, Major, -1},
		{"Cb major", KeyOf(249), 0, Major, -7},
		{"Bb instrument in C", KeyOf(0), 2, Major, 2},
		{"wraps above seven", KeyOf(7), 2, Major, -3},
		{"wraps below minus seven", KeyOf(249), -2, Major, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, fifths := KeyFifthsAndMode(tt.key, tt.adjust)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantFifths, fifths)
		})
	}

	for k := 1; k <= 7; k++ {
		mode, fifths := KeyFifthsAndMode(KeyOf(k), 0)
		assert.Equal(t, Major, mode)
		assert.Equal(t, k, fifths)
	}
}

func TestAlterForStep(t *testing.T) {
	assert.Equal(t, 1, AlterForStep("F", 1))
	assert.Equal(t, 0, AlterForStep("C", 1))
	assert.Equal(t, 1, AlterForStep("B", 7))
	assert.Equal(t, -1, AlterForStep("B", -1))
	assert.Equal(t, 0, AlterForStep("E", -1))
	assert.Equal(t, -1, AlterForStep("F", -7))
	assert.Equal(t, 0, AlterForStep("F", 0))
}

func TestPitchOf(t *testing.T) {
	tests := []struct {
		name     string
		harmLev  int
		harmAlt  int
		key      Key
		adjust   int
		interval int
		respell  bool
		want     Pitch
	}{
		{"middle C", 0, 0, Key{}, 0, 0, false, Pitch{"C", 0, 4}},
		{"C major explicit", 0, 0, KeyOf(0), 0, 0, false, Pitch{"C", 0, 4}},
		{"octave below", -7, 0, Key{}, 0, 0, false, Pitch{"C", 0, 3}},
		{"B below middle C", -1, 0, Key{}, 0, 0, false, Pitch{"B", 0, 3}},
		{"G major tonic", 0, 0, KeyOf(1), 0, 0, false, Pitch{"G", 0, 4}},
		{"G major leading tone", 6, 0, KeyOf(1), 0, 0, false, Pitch{"F", 1, 5}},
		{"F major fourth", 3, 0, KeyOf(255), 0, 0, false, Pitch{"B", -1, 4}},
		{"A minor tonic", 0, 0, KeyOf(256), 0, 0, false, Pitch{"A", 0, 3}},
		{"A minor third", 2, 0, KeyOf(256), 0, 0, false, Pitch{"C", 0, 4}},
		{"chromatic raise", 3, 1, Key{}, 0, 0, false, Pitch{"F", 1, 4}},
		{"respelled sharp", 4, 1, Key{}, 0, 0, true, Pitch{"A", -1, 4}},
		{"Bb instrument", 0, 0, Key{}, 2, 1, false, Pitch{"D", 0, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PitchOf(tt.harmLev, tt.harmAlt, tt.key, tt.adjust, tt.interval, tt.respell)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnharmonic(t *testing.T) {
	tests := []struct {
		step      string
		alter     int
		wantStep  string
		wantAlter int
	}{
		{"F", -1, "E", 0},
		{"E", 0, "F", -1},
		{"G", 1, "A", -1},
		{"D", -2, "C", 0},
		{"C", -1, "B", 0},
		{"B", 1, "C", 0},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			step, alter := Enharmonic(tt.step, tt.alter)
			assert.Equal(t, tt.wantStep, step)
			assert.Equal(t, tt.wantAlter, alter)
		})
	}
}

func TestMIDIKey(t *testing.T) {
	assert.Equal(t, 60, Pitch{"C", 0, 4}.MIDIKey())
	assert.Equal(t, 69, Pitch{"A", 0, 4}.MIDIKey())
	assert.Equal(t, 70, Pitch{"B", -1, 4}.MIDIKey())
}

func TestDurationTypeAndDots(t *testing.T) {
	tests := []struct {
		edus     int
		wantType string
		wantDots int
	}{
		{1024, "quarter", 0},
		{1024 + 512, "quarter", 1},
		{1024 + 512 + 128, "quarter", 1},
		{2048 + 1024 + 512, "half", 2},
		{4096, "whole", 0},
		{256, "16th", 0},
		{4, "1024th", 0},
		{0, "", 0},
		{3, "", 0},
	}

	for _, tt := range tests {
		name, dots := DurationTypeAndDots(tt.edus)
		assert.Equal(t, tt.wantType, name, "edus %d", tt.edus)
		assert.Equal(t, tt.wantDots, dots, "edus %d", tt.edus)
	}
}

func TestDivisions(t *testing.T) {
	assert.Equal(t, 4, ToDivisions(1024))
	assert.Equal(t, 6, ToDivisions(1536))
	assert.Equal(t, 1, ToDivisions(256))
	assert.Equal(t, 16, MeasureDivisions(4, 1024))
	assert.Equal(t, 12, MeasureDivisions(2, 1536))
}

func TestTimeSignature(t *testing.T) {
	tests := []struct {
		beats, divbeat int
		num, den       int
	}{
		{4, 1024, 4, 4},
		{2, 2048, 2, 2},
		{3, 512, 3, 8},
		{2, 1536, 6, 8},
		{3, 1536, 9, 8},
		{5, 0, 5, 4},
	}

	for _, tt := range tests {
		num, den := TimeSignature(tt.beats, tt.divbeat)
		assert.Equal(t, tt.num, num)
		assert.Equal(t, tt.den, den)
	}
}

func TestTupletStackTriplet(t *testing.T) {
	var s TupletStack
	f := s.Push(3, 512, 2, 512)
	assert.Equal(t, 1, f.Number)

	actual, normal := s.TimeModification()
	assert.Equal(t, 3, actual)
	assert.Equal(t, 2, normal)

	assert.Empty(t, s.Accumulate(512))
	assert.Empty(t, s.Accumulate(512))
	closed := s.Accumulate(512)
	require.Len(t, closed, 1)
	assert.Same(t, f, closed[0])
	assert.Equal(t, 0, s.Len())
}

func TestTupletStackNested(t *testing.T) {
	var s TupletStack
	outer := s.Push(3, 1024, 2, 1024)
	inner := s.Push(3, 512, 2, 512)
	assert.Equal(t, 2, inner.Number)

	actual, normal := s.TimeModification()
	assert.Equal(t, 9, actual)
	assert.Equal(t, 4, normal)

	assert.Empty(t, s.Accumulate(512))
	assert.Empty(t, s.Accumulate(512))
	closed := s.Accumulate(512)
	require.Len(t, closed, 1)
	assert.Same(t, inner, closed[0])
	assert.Equal(t, 0, outer.Count.Cmp(big.NewRat(1, 1)))

	assert.Empty(t, s.Accumulate(1024))
	closed = s.Accumulate(1024)
	require.Len(t, closed, 1)
	assert.Same(t, outer, closed[0])
	assert.Nil(t, s.Innermost())
}

func TestTupletStackClosesTogether(t *testing.T) {
	var s TupletStack
	outer := s.Push(3, 1024, 2, 1024)
	assert.Empty(t, s.Accumulate(1024))
	assert.Empty(t, s.Accumulate(1024))
	inner := s.Push(3, 512, 2, 512)

	assert.Empty(t, s.Accumulate(512))
	assert.Empty(t, s.Accumulate(512))
	closed := s.Accumulate(512)
	require.Len(t, closed, 2)
	assert.Same(t, inner, closed[0])
	assert.Same(t, outer, closed[1])
	assert.Equal(t, 0, s.Len())
}

func TestTupletStackIgnoresZeroDuration(t *testing.T) {
	var s TupletStack
	f := s.Push(3, 0, 2, 0)
	assert.Empty(t, s.Accumulate(512))
	assert.Equal(t, 0, f.Count.Sign())
}

func TestTransposeInterval(t *testing.T) {
	assert.Equal(t, Transpose{-1, -2, 0}, TransposeInterval(1))
	assert.Equal(t, Transpose{1, 2, 0}, TransposeInterval(-1))
	assert.Equal(t, Transpose{-5, -9, 0}, TransposeInterval(5))
	assert.Equal(t, Transpose{0, 0, -1}, TransposeInterval(7))
	assert.Equal(t, Transpose{-1, -2, -1}, TransposeInterval(8))
	assert.True(t, TransposeInterval(0).IsZero())
}
