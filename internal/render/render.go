// Package render turns Markdown typed on the command line into editor markup
// and highlights markup for terminal display.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"

	"github.com/allgemeinbildung/abubox/internal/cache"
	"github.com/allgemeinbildung/abubox/internal/util"
)

var renderLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := Formatter().Format(&buf, style(highlightTheme), iterator); err != nil {
		return code
	}
	return buf.String()
}

// Markdown renders md as HTML suitable for an editor slot. Fenced code blocks
// are highlighted with chroma classes.
func Markdown(md []byte, highlightTheme string) string {
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if code, ok := node.(*ast.CodeBlock); ok && entering {
				var lang string
				if info := code.Info; info != nil {
					lang = string(info)
				}
				highlighted := HighlightCode(string(code.Literal), lang, highlightTheme)
				fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", highlighted)
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough |
			parser.SpaceHeadings | parser.BackslashLineBreak | parser.HardLineBreak |
			parser.OrderedListStart | parser.NoEmptyLineBeforeBlock,
	).Parse(markdown.NormalizeNewlines(md))

	return strings.TrimSpace(string(markdown.Render(doc, md_html.NewRenderer(opts))))
}

var renderCacheMutex sync.Mutex

// MarkdownCached is Markdown memoized by content hash and theme.
func MarkdownCached(md []byte, highlightTheme string) string {
	contentHash := util.ContentHash(md)

	if cached, found := cache.GetRenderedMarkup(contentHash, highlightTheme); found {
		renderLogger.Debug().Str("contentHash", contentHash).Str("highlightTheme", highlightTheme).Msg("Cache hit for rendered markdown")
		return cached
	}

	renderLogger.Debug().Str("contentHash", contentHash).Str("highlightTheme", highlightTheme).Msg("Cache miss for rendered markdown")
	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := cache.GetRenderedMarkup(contentHash, highlightTheme); found {
		return cached
	}

	rendered := Markdown(md, highlightTheme)
	cache.SetRenderedMarkup(contentHash, highlightTheme, rendered)
	return rendered
}

// Terminal highlights markup with ANSI colors for display in a terminal.
func Terminal(w io.Writer, markup, highlightTheme string) error {
	lexer := chroma.Coalesce(lexers.Get("html"))

	iterator, err := lexer.Tokenise(nil, markup)
	if err != nil {
		return err
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return formatter.Format(w, style(highlightTheme), iterator)
}

func style(name string) *chroma.Style {
	if s := styles.Get(name); s != nil {
		return s
	}
	return styles.Fallback
}
