package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dgallion1/autopages/internal/analyse"
	"github.com/dgallion1/autopages/internal/pipeline"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	roleStyles   = map[string]lipgloss.Style{
		"title":   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		"content": lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"picture": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
	indent = lipgloss.NewStyle().PaddingLeft(2)
)

// RenderLayouts formats a template report, one block per layout.
func RenderLayouts(template string, layouts []analyse.LayoutInfo) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("%s: %d layouts", template, len(layouts))))
	b.WriteString("\n")
	for _, l := range layouts {
		b.WriteString("\n")
		b.WriteString(nameStyle.Render(fmt.Sprintf("[%d] %s", l.Index, l.Name)))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d content block(s)", l.ContentBlocks)))
		b.WriteString("\n")
		var rows []string
		for _, ph := range l.Placeholders {
			role := ph.Role
			if st, ok := roleStyles[role]; ok {
				role = st.Render(role)
			}
			rows = append(rows, fmt.Sprintf("idx %-3d %-8s %-12s %s", ph.Idx, ph.Type, role, mutedStyle.Render(ph.Name)))
		}
		if len(rows) == 0 {
			rows = append(rows, mutedStyle.Render("no placeholders"))
		}
		b.WriteString(indent.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderOutputs formats what a run produced, one line per file.
func RenderOutputs(outputs []pipeline.Output) string {
	var b strings.Builder
	for _, out := range outputs {
		switch {
		case out.Skipped:
			fmt.Fprintf(&b, "%s %s\n", mutedStyle.Render("kept"), out.Deck)
		case out.Error != "":
			fmt.Fprintf(&b, "%s %s: %s\n", errStyle.Render("failed"), out.Deck, out.Error)
		default:
			if out.Deck != "" && !out.Deleted {
				fmt.Fprintf(&b, "%s %s %s\n", okStyle.Render("wrote"), out.Deck, size(out.Deck))
			}
			if out.PDF != "" {
				fmt.Fprintf(&b, "%s %s %s\n", okStyle.Render("wrote"), out.PDF, size(out.PDF))
			}
		}
	}
	return b.String()
}

// RenderBatch formats the result of a directory conversion.
func RenderBatch(snaps []pipeline.JobSnapshot) string {
	var outputs []pipeline.Output
	failed := 0
	for _, s := range snaps {
		outputs = append(outputs, s.Outputs...)
		if s.Status != pipeline.StatusCompleted {
			failed++
		}
	}
	summary := okStyle.Render(fmt.Sprintf("%d of %d converted", len(snaps)-failed, len(snaps)))
	if failed > 0 {
		summary = errStyle.Render(fmt.Sprintf("%d of %d failed", failed, len(snaps)))
	}
	return RenderOutputs(outputs) + summary + "\n"
}

func size(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return mutedStyle.Render("(" + humanize.Bytes(uint64(info.Size())) + ")")
}
