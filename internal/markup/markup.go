// Package markup converts the editor's HTML into plain text.
package markup

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Tr: true, atom.Table: true, atom.Hr: true,
}

// PlainText returns the text content of markup with one line per block element.
// Input that does not parse is returned unchanged.
func PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return strings.TrimSpace(markup)
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	w := &textWriter{}
	w.walk(doc)
	return w.String()
}

// IsBlank reports whether markup has no visible text, like an editor holding only "<p><br></p>".
func IsBlank(markup string) bool {
	return PlainText(markup) == ""
}

type textWriter struct {
	b strings.Builder
	// ordinal counters for nested <ol>, zero for <ul>
	lists []int
	pre   int
}

func (w *textWriter) newline() {
	s := w.b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		w.b.WriteByte('\n')
	}
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if w.pre == 0 && strings.TrimSpace(n.Data) == "" && strings.Contains(n.Data, "\n") {
			// Source formatting between tags.
			if s := w.b.String(); s != "" && !strings.HasSuffix(s, "\n") {
				w.b.WriteByte(' ')
			}
			return
		}
		w.b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.Br:
			w.b.WriteByte('\n')
			return
		case atom.Pre:
			w.pre++
			defer func() { w.pre-- }()
		case atom.Ol:
			w.lists = append(w.lists, 1)
			defer func() { w.lists = w.lists[:len(w.lists)-1] }()
		case atom.Ul:
			w.lists = append(w.lists, 0)
			defer func() { w.lists = w.lists[:len(w.lists)-1] }()
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		w.newline()
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Li && len(w.lists) > 0 {
		w.b.WriteString(w.bullet())
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}

	if block {
		w.newline()
	}
}

func (w *textWriter) bullet() string {
	depth := len(w.lists) - 1
	indent := strings.Repeat("  ", depth)
	if n := w.lists[depth]; n > 0 {
		w.lists[depth]++
		return indent + strconv.Itoa(n) + ". "
	}
	return indent + "- "
}

// String trims trailing spaces per line and collapses runs of blank lines.
func (w *textWriter) String() string {
	lines := strings.Split(w.b.String(), "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
