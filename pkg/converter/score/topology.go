package score

import (
	"fmt"
	"strings"

	"github.com/james-see/musx2mxl/pkg/converter/finale"
	"github.com/james-see/musx2mxl/pkg/converter/symbols"
)

// PartDescriptor is one output part. Staves holds one staff, or the two
// staves of a piano brace.
type PartDescriptor struct {
	ID           string
	Name         string
	Abbreviation string
	Staves       []finale.StaffSpec
}

// MultiStaff reports whether notes in the part carry a staff number.
func (p PartDescriptor) MultiStaff() bool {
	return len(p.Staves) > 1
}

// ResolveParts derives the part list from the staff and group records.
// Parts are numbered in staff order. A staff that starts a piano brace over
// exactly two staves takes the other staff with it.
func ResolveParts(store *finale.Store, diag *Diagnostics) []PartDescriptor {
	groups := store.Groups()
	staves := store.Staves()
	var parts []PartDescriptor
	for _, staff := range staves {
		brace := pianoBrace(groups, staves, staff.Cmper)
		if brace != nil && brace.StartInst != staff.Cmper {
			continue
		}

		p := PartDescriptor{
			ID:     fmt.Sprintf("P%d", len(parts)+1),
			Staves: []finale.StaffSpec{staff},
		}
		if brace != nil {
			p.Staves = nil
			p.Staves = bracedStaves(brace, staves)
		}

		if staff.HasFullName {
			p.Name = blockName(store, diag, staff.FullNameID)
		} else {
			p.Name = inheritedName(store, diag, groups, staff.Cmper, true)
		}
		if staff.HasAbbrvName {
			p.Abbreviation = blockName(store, diag, staff.AbbrvNameID)
		} else {
			p.Abbreviation = inheritedName(store, diag, groups, staff.Cmper, false)
		}
		parts = append(parts, p)
	}
	return parts
}

// pianoBrace returns the piano brace that merges the staff into a two
// staff part. A brace over any other number of staves merges nothing.
func pianoBrace(groups []finale.StaffGroup, staves []finale.StaffSpec, staff int) *finale.StaffGroup {
	for i, g := range groups {
		if g.IsPianoBrace() && g.Contains(staff) && len(bracedStaves(&g, staves)) == 2 {
			return &groups[i]
		}
	}
	return nil
}

func bracedStaves(g *finale.StaffGroup, staves []finale.StaffSpec) []finale.StaffSpec {
	var out []finale.StaffSpec
	for _, s := range staves {
		if g.Contains(s.Cmper) {
			out = append(out, s)
		}
	}
	return out
}

// inheritedName joins the names of every group containing the staff.
func inheritedName(store *finale.Store, diag *Diagnostics, groups []finale.StaffGroup, staff int, full bool) string {
	var names []string
	for _, g := range groups {
		if !g.Contains(staff) {
			continue
		}
		id, ok := g.AbbrvID, g.HasAbbrvID
		if full {
			id, ok = g.FullID, g.HasFullID
		}
		if !ok {
			continue
		}
		if name := blockName(store, diag, id); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, " ")
}

// blockName resolves a text block to display text.
func blockName(store *finale.Store, diag *Diagnostics, id int) string {
	ref := fmt.Sprintf("textBlock %d", id)
	block, ok := store.TextBlock(id)
	if !ok {
		diag.Warn(MissingName, ref, "text block %d not found", id)
		return ""
	}
	text, ok := store.BlockText(block.TextID)
	if !ok {
		diag.Warn(MissingName, ref, "block text %d not found", block.TextID)
		return ""
	}
	return symbols.CleanText(text)
}
