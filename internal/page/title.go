package page

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var separators = regexp.MustCompile(`[-_+]`)

// ParentTitleFromReferrer derives the heading of the page that linked here:
// the path segments after segment, with - _ + read as spaces, each word
// capitalized, joined by " - ". It returns "" when the referrer is missing,
// unparsable or does not contain segment.
func ParentTitleFromReferrer(referrer, segment string) string {
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil {
		pageLogger.Warn().Err(err).Str("referrer", referrer).Msg("Error parsing referrer")
		return ""
	}

	var parts []string
	for _, p := range strings.Split(u.EscapedPath(), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	idx := slices.Index(parts, segment)
	if idx < 0 || idx == len(parts)-1 {
		return ""
	}

	caser := cases.Title(language.German, cases.NoLower)
	titles := make([]string, 0, len(parts)-idx-1)
	for _, p := range parts[idx+1:] {
		p = separators.ReplaceAllString(p, " ")
		if decoded, err := url.PathUnescape(p); err == nil {
			p = decoded
		}
		titles = append(titles, caser.String(p))
	}
	return strings.Join(titles, " - ")
}
