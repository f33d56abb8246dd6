package finale

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScore = `<?xml version="1.0" encoding="UTF-8"?>
<finale xmlns="http://www.makemusic.com/2012/finale">
  <options>
    <clefOptions>
      <clefDef index="0"><clefChar>38</clefChar><clefYDisp>-6</clefYDisp></clefDef>
      <clefDef index="3"><clefChar>63</clefChar><clefYDisp>-2</clefYDisp></clefDef>
    </clefOptions>
    <playbackOptions><beatsPerMinute>96</beatsPerMinute><edusPerBeat>1024</edusPerBeat></playbackOptions>
    <timeSignatureOptions><timeSigDoAbrvCommon/></timeSignatureOptions>
  </options>
  <others>
    <staffSpec cmper="1"><fullName>1</fullName><transposition><keysig><adjust>2</adjust><interval>1</interval></keysig></transposition></staffSpec>
    <staffSpec cmper="2"/>
    <staffSpec cmper="32767"/>
    <measSpec cmper="1"><beats>4</beats><divbeat>1024</divbeat><keySig><key>1</key></keySig><forRepBar/><hasExpr/></measSpec>
    <measSpec cmper="1" shared="true" part="1"><beats>3</beats><divbeat>1024</divbeat></measSpec>
    <measSpec cmper="2"><beats>3</beats><divbeat>1024</divbeat><barline>double</barline><bacRepBar/></measSpec>
    <textBlock cmper="1"><textID>5</textID><textTag>block</textTag></textBlock>
    <textBlock cmper="1" part="1"><textID>9</textID></textBlock>
    <measExprAssign cmper="1"><textExprID>7</textExprID><staffAssign>1</staffAssign></measExprAssign>
    <measExprAssign cmper="1"><staffAssign>2</staffAssign></measExprAssign>
    <textExprDef cmper="7"><textIDKey>2</textIDKey><categoryID>1</categoryID><value>64</value></textExprDef>
    <markingsCategory cmper="1"><categoryType>dynamics</categoryType></markingsCategory>
    <smartShapeMeasMark cmper="1"><shapeNum>4</shapeNum></smartShapeMeasMark>
    <smartShape cmper="4">
      <shapeType>slurAuto</shapeType>
      <startTermSeg><endPt><inst>1</inst><meas>1</meas><entryNum>10</entryNum></endPt></startTermSeg>
      <endTermSeg><endPt><inst>1</inst><meas>1</meas><entryNum>11</entryNum></endPt></endTermSeg>
    </smartShape>
    <frameSpec cmper="20"><startEntry>10</startEntry><endEntry>12</endEntry></frameSpec>
    <frameSpec cmper="21"><startEntry>13</startEntry></frameSpec>
    <articDef cmper="1"><charMain>62</charMain><charAlt>62</charAlt></articDef>
  </others>
  <details>
    <staffGroup cmper1="0" cmper2="1"><startInst>1</startInst><endInst>2</endInst><startMeas>1</startMeas><endMeas>32003</endMeas><fullID>1</fullID><bracket><id>3</id></bracket></staffGroup>
    <staffGroup cmper1="0" cmper2="1" part="1"><startInst>1</startInst><endInst>1</endInst></staffGroup>
    <gfhold cmper1="1" cmper2="1"><clefID>0</clefID><frame1>20</frame1></gfhold>
    <gfhold cmper1="2" cmper2="1"><clefID>3</clefID><frame1>21</frame1><frame3>22</frame3></gfhold>
    <noteAlter entnum="10"><noteID>1</noteID><enharmonic/></noteAlter>
    <tupletDef entnum="11"><symbolicNum>3</symbolicNum><symbolicDur>512</symbolicDur><refNum>2</refNum><refDur>512</refDur></tupletDef>
    <articAssign entnum="10"><articDef>1</articDef></articAssign>
    <smartShapeEntryMark entnum="10"><shapeNum>4</shapeNum></smartShapeEntryMark>
  </details>
  <entries>
    <entry entnum="10" next="11"><dura>1024</dura><numNotes>2</numNotes><isNote/><noteDetail/><articDetail/><smartShapeDetail/>
      <note id="1"><harmLev>0</harmLev><harmAlt>0</harmAlt><tieStart/></note>
      <note id="2"><harmLev>2</harmLev><harmAlt>-1</harmAlt></note>
    </entry>
    <entry entnum="11" prev="10" next="12"><dura>512</dura><tupletStart/></entry>
    <entry entnum="12" prev="11" next="13"><dura>2048</dura><graceNote/><isNote/><note id="1"><harmLev>1</harmLev><harmAlt>0</harmAlt></note></entry>
    <entry entnum="13" prev="12"><dura>4096</dura></entry>
  </entries>
  <texts>
    <blockText number="5">^fontTxt(Times,0)Piano</blockText>
    <expression number="2">p</expression>
  </texts>
</finale>`

func TestParse(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleScore))
	require.NoError(t, err)

	t.Run("options", func(t *testing.T) {
		o := s.Options()
		assert.True(t, o.AbbreviateCommon)
		assert.False(t, o.AbbreviateCut)
		assert.True(t, o.HasPlayback)
		assert.Equal(t, 96, o.BeatsPerMinute)
		assert.Equal(t, 1024, o.EdusPerBeat)

		c, ok := s.ClefDef(3)
		require.True(t, ok)
		assert.Equal(t, ClefDef{Char: 63, HasChar: true, YDisp: -2}, c)
	})

	t.Run("staves skip placeholder", func(t *testing.T) {
		staves := s.Staves()
		require.Len(t, staves, 2)
		assert.Equal(t, StaffSpec{Cmper: 1, FullNameID: 1, HasFullName: true, KeyAdjust: 2, Interval: 1}, staves[0])
		assert.Equal(t, 2, staves[1].Cmper)
		assert.False(t, staves[1].HasFullName)
	})

	t.Run("groups skip linked parts", func(t *testing.T) {
		groups := s.Groups()
		require.Len(t, groups, 1)
		assert.True(t, groups[0].IsPianoBrace())
		assert.True(t, groups[0].Contains(2))
		assert.False(t, groups[0].Contains(3))
		assert.Equal(t, 1, groups[0].FullID)
	})

	t.Run("measures", func(t *testing.T) {
		ms := s.Measures()
		require.Len(t, ms, 2)
		assert.Equal(t, 4, ms[0].Beats)
		assert.True(t, ms[0].Key.Valid)
		assert.Equal(t, 1, ms[0].Key.Code)
		assert.True(t, ms[0].ForwardRepeat)
		assert.True(t, ms[0].HasExpr)
		assert.Equal(t, "normal", ms[0].Barline)
		assert.Equal(t, 3, ms[1].Beats)
		assert.False(t, ms[1].Key.Valid)
		assert.Equal(t, "double", ms[1].Barline)
		assert.True(t, ms[1].BackwardRepeat)
	})

	t.Run("texts", func(t *testing.T) {
		b, ok := s.TextBlock(1)
		require.True(t, ok)
		assert.Equal(t, TextBlock{TextID: 5, Tag: "block"}, b)
		txt, ok := s.BlockText(5)
		require.True(t, ok)
		assert.Equal(t, "^fontTxt(Times,0)Piano", txt)
		_, ok = s.BlockText(9)
		assert.False(t, ok)
	})

	t.Run("expressions", func(t *testing.T) {
		assigns := s.MeasureExpressions(1)
		require.Len(t, assigns, 1)
		assert.Equal(t, ExprAssign{TextExprID: 7, StaffAssign: 1}, assigns[0])
		def, ok := s.TextExprDef(7)
		require.True(t, ok)
		assert.Equal(t, 2, def.TextIDKey)
		assert.True(t, def.HasValue)
		assert.Equal(t, 64, def.Value)
		cat, ok := s.Category(def.CategoryID)
		require.True(t, ok)
		assert.Equal(t, CategoryDynamics, cat)
		assert.Equal(t, "dynamics", cat.String())
	})

	t.Run("smart shapes", func(t *testing.T) {
		assert.Equal(t, []int{4}, s.MeasureShapes(1))
		assert.Equal(t, []int{4}, s.EntryShapes(10))
		sh, ok := s.SmartShape(4)
		require.True(t, ok)
		assert.Equal(t, SlurAuto, sh.Kind)
		assert.True(t, sh.Kind.IsSlur())
		assert.Equal(t, EndPoint{Meas: 1, Inst: 1, Entry: 10, HasEntry: true}, sh.Start)
		assert.Equal(t, 11, sh.End.Entry)
	})

	t.Run("frames", func(t *testing.T) {
		g, ok := s.GFHold(2, 1)
		require.True(t, ok)
		assert.Equal(t, [4]int{21, 0, 22, 0}, g.Frames)
		assert.True(t, g.HasFrames())
		_, ok = s.GFHold(2, 2)
		assert.False(t, ok)

		clef, ok := s.FirstClef(2)
		require.True(t, ok)
		assert.Equal(t, 3, clef)

		frame, ok := s.DefaultFrame(1)
		require.True(t, ok)
		assert.Equal(t, 20, frame)

		assert.Equal(t, []FrameSpec{{StartEntry: 10, EndEntry: 12}}, s.Frames(20))
		assert.Empty(t, s.Frames(21))
	})

	t.Run("entries", func(t *testing.T) {
		e, ok := s.Entry(10)
		require.True(t, ok)
		assert.Equal(t, 11, e.Next)
		assert.True(t, e.IsNote)
		require.Len(t, e.Notes, 2)
		assert.True(t, e.Notes[0].TieStart)
		assert.Equal(t, -1, e.Notes[1].HarmAlt)

		alter, ok := s.NoteAlter(10, 1)
		require.True(t, ok)
		assert.True(t, alter.Enharmonic)
		_, ok = s.NoteAlter(10, 2)
		assert.False(t, ok)

		assert.Equal(t, []TupletDef{{3, 512, 2, 512}}, s.TupletDefs(11))
		assert.Equal(t, []int{1}, s.Articulations(10))
		a, ok := s.ArticDef(1)
		require.True(t, ok)
		assert.Equal(t, 62, a.CharMain)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"malformed", "<finale><others>", nil},
		{"wrong root", "<score-partwise/>", ErrNotFinale},
		{"bad number", `<finale><others><measSpec cmper="x"/></others></finale>`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWalkChain(t *testing.T) {
	s, err := Parse(strings.NewReader(sampleScore))
	require.NoError(t, err)

	collect := func(start, end int) ([]int, error) {
		var got []int
		err := s.WalkChain(start, end, func(e Entry) error {
			got = append(got, e.Num)
			return nil
		})
		return got, err
	}

	t.Run("stops at end", func(t *testing.T) {
		got, err := collect(10, 12)
		require.NoError(t, err)
		assert.Equal(t, []int{10, 11, 12}, got)
	})

	t.Run("stops at last link", func(t *testing.T) {
		got, err := collect(12, 99)
		require.NoError(t, err)
		assert.Equal(t, []int{12, 13}, got)
	})

	t.Run("missing start is empty", func(t *testing.T) {
		got, err := collect(99, 100)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestWalkChainCycle(t *testing.T) {
	const cyclic = `<finale><entries>
  <entry entnum="1" next="2"><dura>1024</dura></entry>
  <entry entnum="2" next="1"><dura>1024</dura></entry>
</entries></finale>`
	s, err := Parse(strings.NewReader(cyclic))
	require.NoError(t, err)

	visits := 0
	err = s.WalkChain(1, 3, func(Entry) error {
		visits++
		return nil
	})
	assert.ErrorIs(t, err, ErrUnterminatedChain)
	assert.Equal(t, 2, visits)
}

func TestParseMetadata(t *testing.T) {
	t.Run("utf8", func(t *testing.T) {
		m, err := ParseMetadata(strings.NewReader(`<?xml version="1.0" encoding="UTF-8"?>
<metadata xmlns="http://www.makemusic.com/2012/NotationMetadata">
  <fileInfo><title>Étude</title><composer>F. Chopin</composer></fileInfo>
</metadata>`))
		require.NoError(t, err)
		assert.Equal(t, Metadata{Title: "Étude", Composer: "F. Chopin"}, m)
	})

	t.Run("latin1 retry", func(t *testing.T) {
		raw := []byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?><metadata><fileInfo><subtitle>Op. 10 n\xb0 3</subtitle><title>\xc9tude</title></fileInfo></metadata>")
		m, err := ParseMetadata(strings.NewReader(string(raw)))
		require.NoError(t, err)
		assert.Equal(t, "Étude", m.Title)
		assert.Equal(t, "Op. 10 n° 3", m.Subtitle)
	})

	t.Run("malformed after retry", func(t *testing.T) {
		_, err := ParseMetadata(strings.NewReader("<metadata><fileInfo>"))
		assert.Error(t, err)
	})
}
