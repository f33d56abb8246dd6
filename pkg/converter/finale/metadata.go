package finale

import (
	"bytes"
	"io"
	"regexp"

	"github.com/pkg/errors"
	xmldom "github.com/subchen/go-xmldom"
	"golang.org/x/net/html/charset"
)

// Metadata is the file information stored next to the score. Empty fields
// were absent.
type Metadata struct {
	Title    string
	Subtitle string
	Composer string
}

var encodingDecl = regexp.MustCompile(`^(<\?xml[^>]*encoding=)["'][^"']*["']`)

// ParseMetadata reads a NotationMetadata document. Older files are written
// in Latin-1 while declaring, or implying, UTF-8; when the first parse fails
// the bytes are decoded as Latin-1 and parsed once more.
func ParseMetadata(r io.Reader) (Metadata, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "read metadata")
	}

	doc, err := xmldom.Parse(bytes.NewReader(raw))
	if err != nil {
		doc, err = parseLatin1(raw)
		if err != nil {
			return Metadata{}, errors.Wrap(err, "parse metadata markup")
		}
	}
	return metadataOf(doc.Root), nil
}

func parseLatin1(raw []byte) (*xmldom.Document, error) {
	dec, err := charset.NewReaderLabel("latin1", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	utf8, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	utf8 = encodingDecl.ReplaceAll(utf8, []byte(`${1}"UTF-8"`))
	return xmldom.Parse(bytes.NewReader(utf8))
}

func metadataOf(root *xmldom.Node) Metadata {
	var m Metadata
	if root == nil {
		return m
	}
	m.Title, _ = text(root, "fileInfo/title")
	m.Subtitle, _ = text(root, "fileInfo/subtitle")
	m.Composer, _ = text(root, "fileInfo/composer")
	return m
}
