package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "for": true, "in": true, "nor": true, "of": true, "on": true,
	"or": true, "per": true, "the": true, "to": true, "vs": true, "via": true,
	"with": true,
}

var titleLabel = regexp.MustCompile(`(?i)^(?:(?:H[1-6]|Title|Headline)\s*:\s*)+`)

// ExtractTitle returns the text of the highest-level heading in body, the
// first one on ties, or "" when there is none.
func ExtractTitle(body string) string {
	best := ""
	level := 7
	for _, n := range ParseBlocks(body) {
		if n.Kind == NodeHeading && n.Level < level {
			if text := n.Text(); text != "" {
				best, level = text, n.Level
			}
		}
	}
	return best
}

// TitleCase capitalizes each word except inner small words. Words that
// already carry an inner capital (acronyms, camelCase) are left alone.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		switch {
		case hasInnerUpper(w):
		case i > 0 && i < len(words)-1 && smallWords[strings.ToLower(w)]:
			words[i] = strings.ToLower(w)
		default:
			words[i] = capitalize(w)
		}
	}
	return strings.Join(words, " ")
}

// DeriveTitle cleans the stored title, falling back to the first heading of
// body when it is empty.
func DeriveTitle(stored, body string) string {
	t := cleanTitle(stored)
	if t == "" {
		t = cleanTitle(ExtractTitle(body))
	}
	if t == "" {
		return ""
	}
	return TitleCase(t)
}

func cleanTitle(s string) string {
	s = strings.Join(strings.Fields(PlainText(s)), " ")
	s = strings.TrimLeft(s, "# ")
	s = titleLabel.ReplaceAllString(s, "")
	s = strings.Trim(s, "*_\"' ")
	return strings.TrimSpace(s)
}

func hasInnerUpper(w string) bool {
	seenLetter := false
	for _, r := range w {
		if !unicode.IsLetter(r) {
			continue
		}
		if seenLetter && unicode.IsUpper(r) {
			return true
		}
		seenLetter = true
	}
	return false
}

func capitalize(w string) string {
	for i, r := range w {
		if unicode.IsLetter(r) {
			return w[:i] + string(unicode.ToUpper(r)) + w[i+utf8.RuneLen(r):]
		}
	}
	return w
}
