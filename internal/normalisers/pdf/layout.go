package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Layout thresholds, as multiples of the font size.
const (
	rowTolerance = 0.5
	wordGap      = 0.25
	cellGap      = 2.0
)

type glyph struct {
	pdf.Text
	seq int
}

// layoutText renders positioned glyphs as lines of text in reading order.
func layoutText(texts []pdf.Text) string {
	glyphs := make([]glyph, 0, len(texts))
	for i, t := range texts {
		if t.S == "" || strings.ContainsAny(t.S, "\r\n") && strings.TrimSpace(t.S) == "" {
			continue
		}
		glyphs = append(glyphs, glyph{Text: t, seq: i})
	}
	if len(glyphs) == 0 {
		return ""
	}

	// PDF y grows upwards: higher rows come first.
	sort.SliceStable(glyphs, func(a, b int) bool { return glyphs[a].Y > glyphs[b].Y })

	var rows [][]glyph
	for _, g := range glyphs {
		if n := len(rows); n > 0 {
			first := rows[n-1][0]
			tol := math.Max(2, rowTolerance*math.Max(first.FontSize, g.FontSize))
			if math.Abs(first.Y-g.Y) <= tol {
				rows[n-1] = append(rows[n-1], g)
				continue
			}
		}
		rows = append(rows, []glyph{g})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := strings.TrimSpace(renderRow(row)); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderRow(row []glyph) string {
	sort.SliceStable(row, func(a, b int) bool {
		if row[a].X != row[b].X {
			return row[a].X < row[b].X
		}
		return row[a].seq < row[b].seq
	})

	var sb strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			size := math.Max(1, math.Max(prev.FontSize, g.FontSize))
			gap := g.X - (prev.X + prev.W)
			switch {
			case gap > cellGap*size:
				sb.WriteString(" | ")
			case gap > wordGap*size && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " "):
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
	}
	cells := strings.Split(sb.String(), " | ")
	for i, c := range cells {
		cells[i] = strings.Join(strings.Fields(c), " ")
	}
	return strings.Join(cells, " | ")
}
