package converter

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/net/html/charset"
)

// ErrNoParts is returned when a MusicXML document has nothing to play
var ErrNoParts = errors.New("musicxml document has no parts")

// MIDIConverter renders MusicXML as a Standard MIDI File and reads the
// result back
type MIDIConverter struct {
	ticksPerQuarter uint16
	tempo           float64
	velocity        uint8
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
		tempo:           120.0,
		velocity:        100,
	}
}

// MusicXML subset read for playback. Everything but pitch, time and tempo is
// skipped.
type mxlScore struct {
	XMLName  xml.Name       `xml:"score-partwise"`
	PartList []mxlScorePart `xml:"part-list>score-part"`
	Parts    []mxlPart      `xml:"part"`
}

type mxlScorePart struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"part-name"`
}

type mxlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []mxlMeasure `xml:"measure"`
}

type mxlMeasure struct {
	Number string
	Events []any
}

type mxlAttributes struct {
	Divisions int      `xml:"divisions"`
	Time      *mxlTime `xml:"time"`
}

type mxlTime struct {
	Beats    string `xml:"beats"`
	BeatType int    `xml:"beat-type"`
}

type mxlSound struct {
	Tempo float64 `xml:"tempo,attr"`
}

type mxlDirection struct {
	Sound *mxlSound `xml:"sound"`
}

type mxlBackup struct {
	Duration int `xml:"duration"`
}

type mxlForward struct {
	Duration int `xml:"duration"`
}

type mxlNote struct {
	Grace    *struct{} `xml:"grace"`
	Chord    *struct{} `xml:"chord"`
	Rest     *struct{} `xml:"rest"`
	Pitch    *mxlPitch `xml:"pitch"`
	Duration int       `xml:"duration"`
	Ties     []mxlTie  `xml:"tie"`
}

type mxlTie struct {
	Type string `xml:"type,attr"`
}

type mxlPitch struct {
	Step   string  `xml:"step"`
	Alter  float64 `xml:"alter"`
	Octave int     `xml:"octave"`
}

func (m *mxlMeasure) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "number" {
			m.Number = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		t, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		var ev any
		switch t.Name.Local {
		case "attributes":
			ev = &mxlAttributes{}
		case "note":
			ev = &mxlNote{}
		case "backup":
			ev = &mxlBackup{}
		case "forward":
			ev = &mxlForward{}
		case "sound":
			ev = &mxlSound{}
		case "direction":
			var dir mxlDirection
			if err := d.DecodeElement(&dir, &t); err != nil {
				return err
			}
			if dir.Sound != nil {
				m.Events = append(m.Events, dir.Sound)
			}
			continue
		default:
			if err := d.Skip(); err != nil {
				return err
			}
			continue
		}
		if err := d.DecodeElement(ev, &t); err != nil {
			return err
		}
		m.Events = append(m.Events, ev)
	}
}

var stepSemitones = map[string]int{"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11}

// key returns the MIDI key number, or false when the pitch is out of range.
func (p *mxlPitch) key() (uint8, bool) {
	semitone, ok := stepSemitones[p.Step]
	if !ok {
		return 0, false
	}
	n := semitone + (p.Octave+1)*12 + int(math.Round(p.Alter))
	if n < 0 || n > 127 {
		return 0, false
	}
	return uint8(n), true
}

func (n *mxlNote) tie(typ string) bool {
	for _, t := range n.Ties {
		if t.Type == typ {
			return true
		}
	}
	return false
}

func decodeMusicXML(r io.Reader) (*mxlScore, error) {
	var doc mxlScore
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse MusicXML: %w", err)
	}
	return &doc, nil
}

// timedMessage is a message at an absolute tick. Note-offs and meta events
// sort before note-ons on the same tick.
type timedMessage struct {
	tick  int64
	prio  int
	msg   []byte
	order int
}

type trackBuilder struct {
	events []timedMessage
	end    int64
}

func (tb *trackBuilder) add(tick int64, prio int, msg []byte) {
	tb.events = append(tb.events, timedMessage{tick: tick, prio: prio, msg: msg, order: len(tb.events)})
	tb.end = max(tb.end, tick)
}

func (tb *trackBuilder) track() smf.Track {
	slices.SortFunc(tb.events, func(a, b timedMessage) int {
		return cmp.Or(cmp.Compare(a.tick, b.tick), cmp.Compare(a.prio, b.prio), cmp.Compare(a.order, b.order))
	})

	var track smf.Track
	var last int64
	for _, ev := range tb.events {
		track.Add(uint32(ev.tick-last), ev.msg)
		last = ev.tick
	}
	track.Close(uint32(tb.end - last))
	return track
}

// partRenderer lays out the notes of one part on an absolute tick grid.
type partRenderer struct {
	m         *MIDIConverter
	channel   uint8
	divisions int
	notes     *trackBuilder
	// conductor receives tempo and meter events; only the first part has one.
	conductor *trackBuilder
	tied      map[uint8]bool
}

func (r *partRenderer) ticks(duration int) int64 {
	return int64(duration) * int64(r.m.ticksPerQuarter) / int64(r.divisions)
}

func (r *partRenderer) render(p mxlPart) {
	var pos, measureEnd, lastStart int64
	for _, meas := range p.Measures {
		measureStart := measureEnd
		pos = measureStart
		for _, ev := range meas.Events {
			switch v := ev.(type) {
			case *mxlAttributes:
				if v.Divisions > 0 {
					r.divisions = v.Divisions
				}
				if v.Time != nil && r.conductor != nil {
					beats, err := strconv.Atoi(v.Time.Beats)
					if err == nil && beats > 0 && v.Time.BeatType > 0 {
						r.conductor.add(pos, 0, smf.MetaMeter(uint8(beats), uint8(v.Time.BeatType)))
					}
				}
			case *mxlSound:
				if v.Tempo > 0 && r.conductor != nil {
					r.conductor.add(pos, 0, smf.MetaTempo(v.Tempo))
				}
			case *mxlBackup:
				pos = max(pos-r.ticks(v.Duration), measureStart)
			case *mxlForward:
				pos += r.ticks(v.Duration)
			case *mxlNote:
				if v.Grace != nil {
					continue
				}
				start := pos
				if v.Chord != nil {
					start = lastStart
				} else {
					lastStart = pos
					pos += r.ticks(v.Duration)
				}
				end := start + r.ticks(v.Duration)
				measureEnd = max(measureEnd, end)
				if v.Rest == nil && v.Pitch != nil {
					r.note(v, start, end)
				}
			}
			measureEnd = max(measureEnd, pos)
		}
	}
	for key := range r.tied {
		r.notes.add(measureEnd, 0, midi.NoteOff(r.channel, key))
	}
	r.notes.end = max(r.notes.end, measureEnd)
	if r.conductor != nil {
		r.conductor.end = max(r.conductor.end, measureEnd)
	}
}

// note sounds a pitch from start to end. Tied notes are merged into one.
func (r *partRenderer) note(n *mxlNote, start, end int64) {
	key, ok := n.Pitch.key()
	if !ok {
		return
	}
	if !n.tie("stop") || !r.tied[key] {
		r.notes.add(start, 1, midi.NoteOn(r.channel, key, r.m.velocity))
	}
	if n.tie("start") {
		r.tied[key] = true
		return
	}
	delete(r.tied, key)
	r.notes.add(end, 0, midi.NoteOff(r.channel, key))
}

// partChannel spreads parts over the MIDI channels, leaving out the
// percussion channel.
func partChannel(i int) uint8 {
	ch := uint8(i % 15)
	if ch >= 9 {
		ch++
	}
	return ch
}

// GenerateMIDI renders a MusicXML document as a type 1 Standard MIDI File:
// a conductor track followed by one track per part.
func (m *MIDIConverter) GenerateMIDI(r io.Reader) ([]byte, error) {
	doc, err := decodeMusicXML(r)
	if err != nil {
		return nil, err
	}
	if len(doc.Parts) == 0 {
		return nil, ErrNoParts
	}

	names := make(map[string]string, len(doc.PartList))
	for _, sp := range doc.PartList {
		names[sp.ID] = sp.Name
	}

	conductor := &trackBuilder{}
	var tracks []*trackBuilder
	for i, p := range doc.Parts {
		notes := &trackBuilder{}
		if name := names[p.ID]; name != "" {
			notes.add(0, 0, smf.MetaTrackSequenceName(name))
		}
		pr := &partRenderer{
			m:         m,
			channel:   partChannel(i),
			divisions: 1,
			notes:     notes,
			tied:      map[uint8]bool{},
		}
		if i == 0 {
			pr.conductor = conductor
		}
		pr.render(p)
		tracks = append(tracks, notes)
	}
	if !slices.ContainsFunc(conductor.events, isTempoAtStart) {
		conductor.add(0, 0, smf.MetaTempo(m.tempo))
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)
	if err := s.Add(conductor.track()); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}
	for _, tb := range tracks {
		if err := s.Add(tb.track()); err != nil {
			return nil, fmt.Errorf("failed to add track: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

func isTempoAtStart(ev timedMessage) bool {
	return ev.tick == 0 && isTempo(ev.msg)
}

// Tempo meta message: FF 51 03 tt tt tt
func isTempo(msg []byte) bool {
	return len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03
}

// MIDINote is one sounding note read back from a MIDI file
type MIDINote struct {
	Track    int
	Channel  uint8
	Key      uint8
	Velocity uint8
	Start    uint32
	Duration uint32
}

// MIDISummary describes a MIDI file
type MIDISummary struct {
	TicksPerQuarter uint16
	Tracks          int
	// Tempo is the first tempo found, in quarter notes per minute.
	Tempo float64
	Notes []MIDINote
}

// ParseMIDI reads MIDI data and pairs its note-on and note-off events
func (m *MIDIConverter) ParseMIDI(data []byte) (*MIDISummary, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	sum := &MIDISummary{Tracks: len(s.Tracks), Tempo: m.tempo}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		sum.TicksPerQuarter = mt.Resolution()
	}

	tempoFound := false
	for ti, track := range s.Tracks {
		type sounding struct {
			channel, key uint8
		}
		open := map[sounding]int{}
		var tick uint32
		for _, ev := range track {
			tick += ev.Delta
			msg := ev.Message

			if isTempo(msg) && !tempoFound {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					sum.Tempo = 60000000.0 / float64(microsecondsPerBeat)
					tempoFound = true
				}
			}

			if len(msg) < 3 {
				continue
			}
			status, key, velocity := msg[0], msg[1], msg[2]
			sn := sounding{channel: status & 0x0F, key: key}
			switch {
			case status&0xF0 == 0x90 && velocity > 0:
				open[sn] = len(sum.Notes)
				sum.Notes = append(sum.Notes, MIDINote{
					Track:    ti,
					Channel:  sn.channel,
					Key:      key,
					Velocity: velocity,
					Start:    tick,
				})
			case status&0xF0 == 0x80 || status&0xF0 == 0x90:
				if i, ok := open[sn]; ok {
					sum.Notes[i].Duration = tick - sum.Notes[i].Start
					delete(open, sn)
				}
			}
		}
	}
	return sum, nil
}
