package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Map renders the warehouse as a grid of aisles. Each aisle is drawn as two
// columns of racks (left and right) with levels stacked bottom-up. racks and
// levels give the per-side grid dimensions.
func Map(aisles, racks, levels int, slots []Slot, opts MapOpts) (template.HTML, error) {
	if aisles <= 0 || racks <= 0 || levels <= 0 {
		return "", fmt.Errorf("svg: map dimensions must be positive")
	}
	cell := opts.CellSize
	if cell <= 0 {
		cell = DefaultCellSize
	}
	gap := opts.Gap
	if gap <= 0 {
		gap = DefaultGap
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	freeColor := fallback(opts.FreeColor, "#e2e8f0")
	occupiedColor := fallback(opts.OccupiedColor, "#f97316")
	matchColor := fallback(opts.MatchColor, "#0ea5e9")
	textColor := fallback(opts.TextColor, "#334155")

	sideWidth := float64(racks) * (cell + gap)
	corridor := cell
	aisleWidth := 2*sideWidth + corridor
	aisleGap := cell
	height := 2*padding + float64(levels)*(cell+gap) + 16
	width := 2*padding + float64(aisles)*aisleWidth + float64(aisles-1)*aisleGap

	titleID := makeID(opts.Title, "map-title")
	descID := makeID(opts.Title, "map-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" class=\"warehouse-map\" viewBox=\"0 0 %.0f %.0f\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Warehouse map"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Storage slots by aisle, rack and level"))))

	for a := 1; a <= aisles; a++ {
		x := aisleX(a, padding, aisleWidth, aisleGap)
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%02d</text>", x+aisleWidth/2, padding-8, textColor, a))
	}

	for _, slot := range slots {
		if slot.Aisle < 1 || slot.Aisle > aisles || slot.Rack < 0 || slot.Rack >= racks || slot.Level < 1 || slot.Level > levels {
			continue
		}
		x := aisleX(slot.Aisle, padding, aisleWidth, aisleGap) + float64(slot.Rack)*(cell+gap)
		if slot.Right {
			x += sideWidth + corridor
		}
		y := padding + float64(levels-slot.Level)*(cell+gap)
		fill := freeColor
		if slot.Occupied {
			fill = occupiedColor
		}
		stroke := "none"
		if opts.Highlight[slot.Code] {
			stroke = matchColor
		}
		label := slot.Code
		if slot.Products > 0 {
			label = fmt.Sprintf("%s (%d)", slot.Code, slot.Products)
		}
		rect := fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" rx=\"2\" fill=\"%s\" stroke=\"%s\" stroke-width=\"2\" data-code=\"%s\"><title>%s</title></rect>",
			x, y, cell, cell, fill, stroke, template.HTMLEscapeString(slot.Code), template.HTMLEscapeString(label))
		if opts.Link != nil {
			b.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a>", template.HTMLEscapeString(opts.Link(slot.ID)), rect))
		} else {
			b.WriteString(rect)
		}
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func aisleX(aisle int, padding, aisleWidth, aisleGap float64) float64 {
	return padding + float64(aisle-1)*(aisleWidth+aisleGap)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func makeID(title, suffix string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	if base == "" {
		return suffix
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return b.String() + "-" + suffix
}
