package stdout

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hejijunhao/sawmill/internal/model"
)

type styles struct {
	title, exception, errorS, warn, dim lipgloss.Style
}

// newStyles binds styles to w so colors are only emitted on a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:     r.NewStyle().Bold(true),
		exception: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		errorS:    r.NewStyle().Foreground(lipgloss.Color("208")),
		warn:      r.NewStyle().Foreground(lipgloss.Color("11")),
		dim:       r.NewStyle().Faint(true),
	}
}

func renderText(w io.Writer, a model.Analysis) string {
	st := newStyles(w)
	s := a.Report.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", st.title.Render(a.Name), st.dim.Render(fmt.Sprintf("(%d lines)", a.Lines)))
	fmt.Fprintf(&b, "%s  %s  %s\n",
		st.exception.Render(fmt.Sprintf("exceptions %d", s.TotalExceptions)),
		st.errorS.Render(fmt.Sprintf("errors %d", s.TotalErrors)),
		st.warn.Render(fmt.Sprintf("warns %d", s.TotalWarns)),
	)

	var sources []string
	for _, d := range model.Dialects() {
		sources = append(sources, fmt.Sprintf("%s %d", d, s.BySource[d.String()]))
	}
	fmt.Fprintf(&b, "%s\n", st.dim.Render("by source: "+strings.Join(sources, "  ")))

	section(&b, "EXCEPTIONS", st.exception, st.dim, a.Report.ExceptionsGrouped, true)
	section(&b, "ERRORS", st.errorS, st.dim, a.Report.ErrorsGrouped, false)
	section(&b, "WARNINGS", st.warn, st.dim, a.Report.WarnsGrouped, false)
	return b.String()
}

func section(b *strings.Builder, title string, head, dim lipgloss.Style, groups []model.Group, showType bool) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", head.Render(title))
	for _, g := range groups {
		label := g.ShortDescription
		if showType {
			label = g.Type
		}
		origin := g.Source.String() + "/" + g.Subsystem
		fmt.Fprintf(b, "  [x%d] %s  %s\n", g.Count, label, dim.Render(origin+"  lines "+joinLines(g.Lines)))
		if g.Location != model.Placeholder {
			fmt.Fprintf(b, "       %s\n", dim.Render(g.Location))
		}
	}
}

func joinLines(lines []int) string {
	const limit = 10
	parts := make([]string, 0, limit+1)
	for i, n := range lines {
		if i == limit {
			parts = append(parts, fmt.Sprintf("+%d more", len(lines)-limit))
			break
		}
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ",")
}
