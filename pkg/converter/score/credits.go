package score

import (
	xmldom "github.com/subchen/go-xmldom"

	"github.com/james-see/musx2mxl/pkg/converter/finale"
)

type credit struct {
	kind     string
	x, y     string
	justify  string
	valign   string
	fontSize string
}

// Page positions of the first page credits, in tenths.
var (
	titleCredit    = credit{"title", "616.935484", "1511.049022", "center", "top", "22"}
	subtitleCredit = credit{"subtitle", "616.935484", "1453.898908", "center", "top", "14"}
	composerCredit = credit{"composer", "1148.145796", "1411.049022", "right", "bottom", "10"}
)

// writeHeader writes work, identification and credits.
func writeHeader(root *xmldom.Node, meta *finale.Metadata, software string) {
	if meta == nil {
		meta = &finale.Metadata{}
	}

	if meta.Title != "" {
		textNode(root.CreateNode("work"), "work-title", meta.Title)
	}

	id := root.CreateNode("identification")
	if meta.Composer != "" {
		textNode(id, "creator", meta.Composer).SetAttributeValue("type", "composer")
	}
	if software != "" {
		textNode(id.CreateNode("encoding"), "software", software)
	}

	for _, c := range []struct {
		credit
		text string
	}{
		{titleCredit, meta.Title},
		{subtitleCredit, meta.Subtitle},
		{composerCredit, meta.Composer},
	} {
		if c.text == "" {
			continue
		}
		n := root.CreateNode("credit").SetAttributeValue("page", "1")
		textNode(n, "credit-type", c.kind)
		textNode(n, "credit-words", c.text).
			SetAttributeValue("default-x", c.x).
			SetAttributeValue("default-y", c.y).
			SetAttributeValue("justify", c.justify).
			SetAttributeValue("valign", c.valign).
			SetAttributeValue("font-size", c.fontSize)
	}
}
