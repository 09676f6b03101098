package listview

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/allgemeinbildung/abubox/internal/markup"
)

const previewWidth = 72

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	text     lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	row      lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1F4E79", Dark: "#7FB3E0"}),
		label:    r.NewStyle().Bold(true),
		text:     r.NewStyle().PaddingLeft(4),
		selected: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}),
		muted:    r.NewStyle().Faint(true).Italic(true),
		row:      r.NewStyle().MarginBottom(1),
	}
}

// Render writes the list to w. Colors are used only when w is a terminal.
func (v *View) Render(w io.Writer) error {
	s := newStyles(lipgloss.NewRenderer(w))

	rows := v.Rows()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, s.muted.Render(v.Message()))
		return err
	}

	schema := v.formatter.Schema()
	blocks := make([]string, 0, len(rows))
	for _, r := range rows {
		box := "[ ]"
		if r.Selected {
			box = s.selected.Render("[x]")
		}

		lines := []string{
			box + " " + s.title.Render(r.Title) + " " + s.muted.Render("("+r.ID+")"),
			s.text.Render(s.label.Render(schema.LabelA+":") + " " + preview(r.Record.SlotA)),
			s.text.Render(s.label.Render(schema.LabelB+":") + " " + preview(r.Record.SlotB)),
		}
		blocks = append(blocks, s.row.Render(strings.Join(lines, "\n")))
	}

	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n"))
	return err
}

// preview is the first line of the plain text, shortened to previewWidth runes.
func preview(m string) string {
	text := markup.PlainText(m)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i] + " …"
	}
	if r := []rune(text); len(r) > previewWidth {
		text = string(r[:previewWidth-1]) + "…"
	}
	return text
}
