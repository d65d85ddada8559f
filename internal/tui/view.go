package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/simp-lee/datatable/internal/query"
)

const maxCellWidth = 28

func (m Model) View() string {
	var b strings.Builder
	st := m.sync.Read()

	title := strings.ToUpper(m.table.Name()[:1]) + m.table.Name()[1:]
	b.WriteString(styleHeader.Render(title))
	b.WriteString(styleSubtle.Render(fmt.Sprintf("  %s %s",
		humanize.Comma(int64(m.res.TotalCount)), english.PluralWord(m.res.TotalCount, "record", ""))))
	b.WriteString("\n\n")

	b.WriteString(styleInputBox.Render(m.input.View()))
	b.WriteString("\n")

	if m.facet != "" {
		b.WriteString(m.facetLine(st))
		b.WriteString("\n")
	}
	b.WriteString(selectionLine(st))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleError.Render("error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.tableView(st))
	b.WriteString("\n")

	pager := fmt.Sprintf("page %d of %s · %d rows", m.res.PageIndex+1,
		humanize.Comma(int64(max(m.res.PageCount, 1))), m.res.PageSize)
	if m.loading {
		pager += " · loading"
	}
	b.WriteString(styleSubtle.Render(pager))
	b.WriteString("\n")
	if s := m.Search(); s != "" {
		b.WriteString(styleSubtle.Render("?" + s))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleSubtle.Render("/ filter • ←/→ page • ↑/↓ row • m mark • v selection • tab column • s sort • [/] facet • space toggle • +/- rows • r reset • q quit"))
	return b.String()
}

func (m Model) facetLine(st query.State) string {
	checked := st[m.facet].Tags()
	parts := []string{styleSubtle.Render(m.facet + ":")}
	for i, fc := range m.facetOptions() {
		box := "[ ]"
		style := styleCell
		if slices.Contains(checked, fc.Value) {
			box = "[x]"
			style = styleOn
		}
		label := fmt.Sprintf("%s %s (%s)", box, fc.Value, humanize.Comma(int64(fc.Count)))
		if i == m.facetCursor {
			style = style.Underline(true)
		}
		parts = append(parts, style.Render(label))
	}
	return strings.Join(parts, " ")
}

func selectionLine(st query.State) string {
	tags, ids := st.Selection()
	filter := "all"
	if len(tags) > 0 {
		filter = strings.Join(tags, ", ")
	}
	return styleSubtle.Render(fmt.Sprintf("selection: %s · %s marked", filter, humanize.Comma(int64(len(ids)))))
}

func (m Model) tableView(st query.State) string {
	sort, sorted := st.Sort()
	_, marked := st.Selection()

	// The first column shows the row cursor and the marked rows.
	headers := make([]string, len(m.cols)+1)
	headers[0] = "  "
	for i, c := range m.cols {
		h := c.Name
		if sorted && sort.Field == c.Name {
			if sort.Direction == query.Desc {
				h += " ▼"
			} else {
				h += " ▲"
			}
		}
		headers[i+1] = h
	}

	rows := make([][]string, len(m.res.Rows))
	for i, row := range m.res.Rows {
		mark := " "
		if i < len(m.res.IDs) && slices.Contains(marked, m.res.IDs[i]) {
			mark = "✓"
		}
		if i == m.rowCursor {
			mark = "›" + mark
		} else {
			mark = " " + mark
		}
		rows[i] = append([]string{mark}, row...)
	}

	out := renderTable(headers, rows, m.sortCursor+1)
	if len(m.res.Rows) == 0 && !m.loading {
		out += styleSubtle.Render("no results") + "\n"
	}
	return out
}

// RenderTable lays out rows under headers in padded columns. Cells wider
// than the column limit are truncated.
func RenderTable(headers []string, rows [][]string) string {
	return renderTable(headers, rows, -1)
}

func renderTable(headers []string, rows [][]string, cursor int) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxCellWidth)
	}

	var sb strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		style := styleColumn
		if i == cursor {
			style = styleCursor
		}
		cells[i] = style.Render(pad(h, widths[i]))
	}
	sb.WriteString(strings.Join(cells, "  ") + "\n")

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = styleSubtle.Render(strings.Repeat("─", w))
	}
	sb.WriteString(strings.Join(seps, "  ") + "\n")

	for _, row := range rows {
		for i := range cells {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			cells[i] = styleCell.Render(pad(truncate(val, widths[i]), widths[i]))
		}
		sb.WriteString(strings.Join(cells, "  ") + "\n")
	}
	return sb.String()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width < 2 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
