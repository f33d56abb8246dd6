package converter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
)

const (
	mxlMimetype     = "application/vnd.recordare.musicxml"
	mxlContainer    = "META-INF/container.xml"
	mxlScoreEntry   = "score.musicxml"
	mxlRootfileType = "application/vnd.recordare.musicxml+xml"
)

// ErrNoRootfile is returned when a .mxl archive names no readable score
var ErrNoRootfile = errors.New("mxl archive has no rootfile")

type mxlContainerDoc struct {
	XMLName   xml.Name      `xml:"container"`
	Rootfiles []mxlRootfile `xml:"rootfiles>rootfile"`
}

type mxlRootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr,omitempty"`
}

// WriteMXL packages a MusicXML document as compressed MusicXML. The
// mimetype entry comes first and is stored uncompressed.
func WriteMXL(musicXML []byte) ([]byte, error) {
	container, err := xml.MarshalIndent(mxlContainerDoc{
		Rootfiles: []mxlRootfile{{FullPath: mxlScoreEntry, MediaType: mxlRootfileType}},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode container: %w", err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if err := writeZipEntry(w, "mimetype", zip.Store, []byte(mxlMimetype)); err != nil {
		return nil, err
	}
	if err := writeZipEntry(w, mxlContainer, zip.Deflate, append([]byte(xml.Header), container...)); err != nil {
		return nil, err
	}
	if err := writeZipEntry(w, mxlScoreEntry, zip.Deflate, musicXML); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to write mxl archive: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadMXL returns the MusicXML document named by the first rootfile of a
// compressed MusicXML archive
func ReadMXL(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open mxl archive: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[path.Clean(f.Name)] = f
	}

	cf, ok := files[mxlContainer]
	if !ok {
		return nil, ErrNoRootfile
	}
	raw, err := readZipEntry(cf)
	if err != nil {
		return nil, err
	}
	var doc mxlContainerDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", mxlContainer, err)
	}
	if len(doc.Rootfiles) == 0 {
		return nil, ErrNoRootfile
	}
	f, ok := files[path.Clean(doc.Rootfiles[0].FullPath)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRootfile, doc.Rootfiles[0].FullPath)
	}
	return readZipEntry(f)
}
