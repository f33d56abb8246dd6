package theory

import "math/big"

// TupletFrame is one open tuplet: SymbolicNum notes of SymbolicDur in the
// time of RefNum notes of RefDur. Count is the number of symbolic units
// consumed so far.
type TupletFrame struct {
	Number      int
	SymbolicNum int
	SymbolicDur int
	RefNum      int
	RefDur      int
	Count       *big.Rat
}

// Ratio is RefNum/SymbolicNum, the factor by which the tuplet scales the
// durations it contains.
func (f *TupletFrame) Ratio() *big.Rat {
	if f.SymbolicNum == 0 {
		return big.NewRat(1, 1)
	}
	return big.NewRat(int64(f.RefNum), int64(f.SymbolicNum))
}

// Complete reports whether all symbolic units of the tuplet are consumed.
func (f *TupletFrame) Complete() bool {
	return f.Count.Cmp(big.NewRat(int64(f.SymbolicNum), 1)) >= 0
}

// TupletStack holds the open tuplets of one voice, innermost last.
type TupletStack struct {
	frames []*TupletFrame
}

// Push opens a tuplet and returns it. Its number is the nesting depth.
func (s *TupletStack) Push(symbolicNum, symbolicDur, refNum, refDur int) *TupletFrame {
	f := &TupletFrame{
		Number:      len(s.frames) + 1,
		SymbolicNum: symbolicNum,
		SymbolicDur: symbolicDur,
		RefNum:      refNum,
		RefDur:      refDur,
		Count:       new(big.Rat),
	}
	s.frames = append(s.frames, f)
	return f
}

// Innermost returns the innermost open tuplet, or nil.
func (s *TupletStack) Innermost() *TupletFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Len is the number of open tuplets.
func (s *TupletStack) Len() int {
	return len(s.frames)
}

// TimeModification is the combined ratio of all open tuplets, as the
// actual and normal note counts of a MusicXML time-modification.
func (s *TupletStack) TimeModification() (actual, normal int) {
	actual, normal = 1, 1
	for _, f := range s.frames {
		actual *= f.SymbolicNum
		normal *= f.RefNum
	}
	return actual, normal
}

// Accumulate adds a consumed duration to every open tuplet. The innermost
// counts it in its own symbolic units; each enclosing tuplet sees it scaled
// by the ratios of the tuplets it encloses. Complete tuplets are then popped
// from the inside out and returned innermost first.
func (s *TupletStack) Accumulate(edus int) []*TupletFrame {
	scale := big.NewRat(1, 1)
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if f.SymbolicDur != 0 {
			inc := new(big.Rat).Mul(scale, big.NewRat(int64(edus), int64(f.SymbolicDur)))
			f.Count.Add(f.Count, inc)
		}
		scale.Mul(scale, f.Ratio())
	}

	var closed []*TupletFrame
	for inner := s.Innermost(); inner != nil && inner.Complete(); inner = s.Innermost() {
		s.frames = s.frames[:len(s.frames)-1]
		closed = append(closed, inner)
	}
	return closed
}
