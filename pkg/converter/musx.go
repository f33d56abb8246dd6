package converter

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
)

const (
	musxScoreEntry    = "score.dat"
	musxMetadataEntry = "NotationMetadata.xml"

	scrambleSeed  = 0x28006D45
	scrambleBlock = 0x20000
)

// ErrNoScore is returned when a .musx archive has no score.dat entry
var ErrNoScore = errors.New("musx archive has no score.dat")

// MusxFile is the content of a .musx archive
type MusxFile struct {
	// Score is the EnigmaXML document.
	Score []byte
	// Metadata is the NotationMetadata document, nil when absent.
	Metadata []byte
}

// ReadMusx opens a .musx archive and recovers its score and metadata
func ReadMusx(data []byte) (*MusxFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open musx archive: %w", err)
	}

	var f MusxFile
	var scoreFound bool
	for _, entry := range zr.File {
		switch path.Base(entry.Name) {
		case musxScoreEntry:
			raw, err := readZipEntry(entry)
			if err != nil {
				return nil, err
			}
			f.Score, err = decodeScoreDat(raw)
			if err != nil {
				return nil, err
			}
			scoreFound = true
		case musxMetadataEntry:
			f.Metadata, err = readZipEntry(entry)
			if err != nil {
				return nil, err
			}
		}
	}
	if !scoreFound {
		return nil, ErrNoScore
	}
	return &f, nil
}

// decodeScoreDat descrambles score.dat and inflates the EnigmaXML inside
func decodeScoreDat(raw []byte) ([]byte, error) {
	buf := append([]byte(nil), raw...)
	descramble(buf)
	zr, err := gzip.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to inflate %s: %w", musxScoreEntry, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate %s: %w", musxScoreEntry, err)
	}
	return out, nil
}

// descramble reverses the keystream applied to score.dat in place. The
// generator restarts from the seed every scrambleBlock bytes. Applying it
// twice restores the input.
func descramble(buf []byte) {
	var state uint32
	for i := range buf {
		if i%scrambleBlock == 0 {
			state = scrambleSeed
		}
		state = state*0x41c64e6d + 0x3039
		upper := uint16(state >> 16)
		c := byte(upper + upper/255)
		buf[i] ^= c
	}
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

// WriteMusx packages an EnigmaXML document, and optionally its metadata, as
// a .musx archive. It is the inverse of ReadMusx.
func WriteMusx(score, metadata []byte) ([]byte, error) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	if _, err := zw.Write(score); err != nil {
		return nil, fmt.Errorf("failed to compress score: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress score: %w", err)
	}
	dat := gz.Bytes()
	descramble(dat)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if err := writeZipEntry(w, musxScoreEntry, zip.Deflate, dat); err != nil {
		return nil, err
	}
	if metadata != nil {
		if err := writeZipEntry(w, musxMetadataEntry, zip.Deflate, metadata); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to write musx archive: %w", err)
	}
	return buf.Bytes(), nil
}

func writeZipEntry(w *zip.Writer, name string, method uint16, data []byte) error {
	fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
