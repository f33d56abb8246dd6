package score

import (
	"fmt"

	xmldom "github.com/subchen/go-xmldom"

	"github.com/james-see/musx2mxl/pkg/converter/finale"
	"github.com/james-see/musx2mxl/pkg/converter/symbols"
)

// Expression is a text expression resolved for display.
type Expression struct {
	StaffAssign int
	Category    finale.Category
	Text        string
	Value       int
	HasValue    bool
}

// measureShapes returns the smart shapes attached to a measure.
func (b *builder) measureShapes(meas int) []finale.SmartShape {
	var shapes []finale.SmartShape
	for _, num := range b.store.MeasureShapes(meas) {
		shape, ok := b.store.SmartShape(num)
		if !ok {
			b.diag.Warn(MissingSmartShape, fmt.Sprintf("smartShape %d", num), "smart shape %d not found", num)
			continue
		}
		shapes = append(shapes, shape)
	}
	return shapes
}

// writeWedges writes the hairpins starting, or ending, on the staff in the
// measure. Starts are matched on the start anchor and stops on the end
// anchor.
func (b *builder) writeWedges(ctx staffContext, starts bool) {
	for _, shape := range ctx.shapes {
		if shape.Kind != finale.Crescendo && shape.Kind != finale.Decrescendo {
			continue
		}
		anchor := shape.End
		typ := "stop"
		if starts {
			anchor = shape.Start
			typ = "crescendo"
			if shape.Kind == finale.Decrescendo {
				typ = "diminuendo"
			}
		}
		if anchor.Meas != ctx.meas.Cmper || anchor.Inst != ctx.staff.Cmper {
			continue
		}
		dir, dt := newDirection(ctx, "below")
		dt.CreateNode("wedge").SetAttributeValue("type", typ)
		ctx.setStaff(dir)
	}
}

// newDirection starts a direction and returns it with its direction-type.
func newDirection(ctx staffContext, placement string) (dir, dt *xmldom.Node) {
	dir = ctx.measure.CreateNode("direction").SetAttributeValue("placement", placement)
	return dir, dir.CreateNode("direction-type")
}

// resolveExpression follows an assignment to its definition, category and
// text. ok is false when a record is missing.
func (b *builder) resolveExpression(a finale.ExprAssign) (Expression, bool) {
	ref := fmt.Sprintf("textExprDef %d", a.TextExprID)
	def, ok := b.store.TextExprDef(a.TextExprID)
	if !ok {
		b.diag.Warn(MissingExpressionDef, ref, "expression definition %d not found", a.TextExprID)
		return Expression{}, false
	}
	block, ok := b.store.TextBlock(def.TextIDKey)
	if !ok {
		b.diag.Warn(MissingTextBlock, ref, "text block %d not found", def.TextIDKey)
		return Expression{}, false
	}
	text, ok := b.store.ExpressionText(block.TextID)
	if !ok {
		b.diag.Warn(MissingTextBlock, ref, "expression text %d not found", block.TextID)
		return Expression{}, false
	}
	cat, ok := b.store.Category(def.CategoryID)
	if !ok {
		b.diag.Warn(MissingCategory, ref, "marking category %d not found", def.CategoryID)
	}
	return Expression{
		StaffAssign: a.StaffAssign,
		Category:    cat,
		Text:        text,
		Value:       def.Value,
		HasValue:    def.HasValue,
	}, true
}

// writeExpressions writes the expressions assigned to the staff.
func (b *builder) writeExpressions(ctx staffContext) {
	for _, a := range b.store.MeasureExpressions(ctx.meas.Cmper) {
		if a.StaffAssign != ctx.staff.Cmper {
			continue
		}
		expr, ok := b.resolveExpression(a)
		if !ok || expr.Text == "" {
			continue
		}
		b.writeExpression(ctx, expr, a.TextExprID)
	}
}

func (b *builder) writeExpression(ctx staffContext, expr Expression, id int) {
	switch expr.Category {
	case finale.CategoryMisc:
		if !writeDynamics(ctx, expr.Text) {
			writeWords(ctx, expr.Text, "above")
		}
	case finale.CategoryDynamics:
		writeDynamics(ctx, expr.Text)
	case finale.CategoryTempoAlterations, finale.CategoryTechniqueText:
		writeWords(ctx, expr.Text, "above")
	case finale.CategoryExpressiveText:
		writeWords(ctx, expr.Text, "below")
	case finale.CategoryTempoMarks:
		// The tempo comes from the playback options; the text is only
		// checked.
		if tm := symbols.ParseTempoMark(expr.Text); !tm.Parsed && symbols.LooksLikeTempo(tm.Words) {
			b.diag.Warn(TempoMarkUnparsed, fmt.Sprintf("textExprDef %d", id), "tempo mark %q not understood", tm.Words)
		}
	case finale.CategoryRehearsalMarks, finale.CategoryUnknown:
	}
}

func writeDynamics(ctx staffContext, text string) bool {
	name, ok := symbols.Dynamic(text)
	if !ok {
		return false
	}
	dir, dt := newDirection(ctx, "below")
	dt.CreateNode("dynamics").CreateNode(name)
	ctx.setStaff(dir)
	return true
}

func writeWords(ctx staffContext, text, placement string) {
	dir, dt := newDirection(ctx, placement)
	textNode(dt, "words", symbols.CleanText(text)).SetAttributeValue("font-style", "italic")
	ctx.setStaff(dir)
}
