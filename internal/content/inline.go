package content

import (
	"html"
	"regexp"
	"strings"
)

type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
	SpanItalic
	SpanLink
)

func (k SpanKind) String() string {
	switch k {
	case SpanBold:
		return "bold"
	case SpanItalic:
		return "italic"
	case SpanLink:
		return "link"
	default:
		return "text"
	}
}

// Span is one inline segment of a line. Raw is the exact input slice the
// span was recognized from; Inner is the raw content between the markers,
// still possibly carrying nested formatting. Text is Inner as plain text.
type Span struct {
	Kind  SpanKind
	Raw   string
	Inner string
	Text  string
	Href  string
}

var hrefAttr = regexp.MustCompile(`(?i)\bhref\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)

// Tokenize splits s into an ordered, gap-free list of inline spans. Bold is
// tried before italic, italic before links; anything unrecognized becomes a
// text span. Joining the Raw fields of the result always yields s.
func Tokenize(s string) []Span {
	var spans []Span
	lower := asciiLower(s)
	textStart := 0

	for i := 0; i < len(s); {
		span, n := matchSpan(s, lower, i)
		if n == 0 {
			i++
			continue
		}
		if textStart < i {
			spans = append(spans, textSpan(s[textStart:i]))
		}
		spans = append(spans, span)
		i += n
		textStart = i
	}
	if textStart < len(s) {
		spans = append(spans, textSpan(s[textStart:]))
	}

	return spans
}

// Join concatenates the raw form of spans.
func Join(spans []Span) string {
	var sb strings.Builder
	for _, sp := range spans {
		sb.WriteString(sp.Raw)
	}
	return sb.String()
}

func textSpan(raw string) Span {
	return Span{Kind: SpanText, Raw: raw, Inner: raw, Text: PlainText(raw)}
}

func matchSpan(s, lower string, i int) (Span, int) {
	switch s[i] {
	case '*':
		if strings.HasPrefix(s[i:], "**") {
			if n := matchDelimited(s, i, "**"); n > 0 {
				return delimitedSpan(SpanBold, s[i:i+n], 2), n
			}
			return Span{}, 0
		}
		if n := matchDelimited(s, i, "*"); n > 0 {
			return delimitedSpan(SpanItalic, s[i:i+n], 1), n
		}
	case '<':
		name, openEnd, ok := openTag(lower, i)
		if !ok {
			return Span{}, 0
		}
		var kind SpanKind
		switch name {
		case "strong", "b":
			kind = SpanBold
		case "em", "i":
			kind = SpanItalic
		case "a":
			kind = SpanLink
		default:
			return Span{}, 0
		}
		closing := "</" + name + ">"
		j := strings.Index(lower[openEnd:], closing)
		if j < 0 {
			return Span{}, 0
		}
		inner := s[openEnd : openEnd+j]
		n := openEnd + j + len(closing) - i
		sp := Span{Kind: kind, Raw: s[i : i+n], Inner: inner, Text: PlainText(inner)}
		if kind == SpanLink {
			sp.Href = extractHref(s[i:openEnd])
		}
		return sp, n
	case '[':
		if n, text, href := matchMarkdownLink(s, i); n > 0 {
			return Span{Kind: SpanLink, Raw: s[i : i+n], Inner: text, Text: PlainText(text), Href: href}, n
		}
	}
	return Span{}, 0
}

// matchDelimited returns the length of a marker-delimited span starting at i,
// or 0. The content must be non-empty, stay on one line and not start with
// whitespace. A single-star closer must not be part of a "**".
func matchDelimited(s string, i int, marker string) int {
	start := i + len(marker)
	if start >= len(s) || isSpace(s[start]) || strings.HasPrefix(s[start:], "*") {
		return 0
	}
	for j := start; j < len(s); j++ {
		if s[j] == '\n' {
			return 0
		}
		if !strings.HasPrefix(s[j:], marker) {
			continue
		}
		if marker == "*" && j+1 < len(s) && s[j+1] == '*' {
			j++
			continue
		}
		if isSpace(s[j-1]) {
			continue
		}
		return j + len(marker) - i
	}
	return 0
}

func delimitedSpan(kind SpanKind, raw string, markerLen int) Span {
	inner := raw[markerLen : len(raw)-markerLen]
	return Span{Kind: kind, Raw: raw, Inner: inner, Text: PlainText(inner)}
}

func matchMarkdownLink(s string, i int) (int, string, string) {
	close := strings.IndexByte(s[i+1:], ']')
	if close < 0 {
		return 0, "", ""
	}
	close += i + 1
	text := s[i+1 : close]
	if text == "" || strings.ContainsAny(text, "[\n") {
		return 0, "", ""
	}
	if close+1 >= len(s) || s[close+1] != '(' {
		return 0, "", ""
	}
	end := strings.IndexByte(s[close+2:], ')')
	if end < 0 {
		return 0, "", ""
	}
	end += close + 2
	href := strings.TrimSpace(s[close+2 : end])
	if href == "" || strings.ContainsAny(href, " \t\n") {
		return 0, "", ""
	}
	return end + 1 - i, text, html.UnescapeString(href)
}

// openTag parses an opening tag at lower[i] and returns its name and the
// offset just past '>'.
func openTag(lower string, i int) (string, int, bool) {
	j := i + 1
	for j < len(lower) && isAlnum(lower[j]) {
		j++
	}
	if j == i+1 || j >= len(lower) {
		return "", 0, false
	}
	if c := lower[j]; c != '>' && !isSpace(c) {
		return "", 0, false
	}
	end := strings.IndexByte(lower[j:], '>')
	if end < 0 {
		return "", 0, false
	}
	end += j
	if strings.ContainsAny(lower[j:end], "<\n") {
		return "", 0, false
	}
	return lower[i+1 : j], end + 1, true
}

func extractHref(tag string) string {
	m := hrefAttr.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	for _, v := range m[1:] {
		if v != "" {
			return strings.TrimSpace(html.UnescapeString(v))
		}
	}
	return ""
}

var anyTag = regexp.MustCompile(`(?s)<!--.*?-->|</?[a-zA-Z][^>]*>`)

// PlainText strips markup and decodes entities.
func PlainText(s string) string {
	s = anyTag.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

// asciiLower lowers A-Z only so byte offsets stay aligned with s.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
