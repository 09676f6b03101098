package render

import (
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/allgemeinbildung/abubox/internal/cache"
)

var syntaxCSSCache = cache.NewCache[string, string]()

// SyntaxThemes lists the chroma styles a caller may choose from.
func SyntaxThemes() []string {
	styleNames := styles.Names()
	slices.Sort(styleNames)
	return styleNames
}

// IsSyntaxTheme reports whether name is a registered chroma style.
func IsSyntaxTheme(name string) bool {
	return slices.Contains(styles.Names(), name)
}

func Formatter() *html.Formatter {
	return html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WrapLongLines(true),
	)
}

// SyntaxCSS returns the stylesheet for code blocks rendered with theme.
func SyntaxCSS(theme string) string {
	if css, ok := syntaxCSSCache.Get(theme); ok {
		return css
	}

	var buf strings.Builder
	s := style(theme)

	bg := s.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Pick a readable text color when the style leaves it unset.
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	if err := Formatter().WriteCSS(&buf, s); err != nil {
		renderLogger.Error().Err(err).Str("theme", theme).Msg("Error generating syntax CSS")
		return ""
	}
	css := buf.String()
	syntaxCSSCache.Set(theme, css)
	return css
}
