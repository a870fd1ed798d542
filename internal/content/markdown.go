package content

import (
	"strconv"
	"strings"
)

// ToMarkdown renders content as flat Markdown with one syntax per construct:
// **bold**, *italic*, [text](url), "#" headings and "- " or "1. " list items.
// HTML markup is converted or dropped.
func ToMarkdown(s string) string {
	var sb strings.Builder
	var prev *Node
	num := 0

	for _, n := range ParseBlocks(s) {
		text := strings.TrimSpace(markdownInline(n.Spans))
		if text == "" {
			continue
		}

		listContinues := prev != nil && prev.Kind == NodeListItem && n.Kind == NodeListItem
		if prev != nil {
			if listContinues {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}

		switch n.Kind {
		case NodeHeading:
			sb.WriteString(strings.Repeat("#", n.Level) + " ")
		case NodeListItem:
			if !n.Ordered {
				sb.WriteString("- ")
				break
			}
			if !listContinues || !prev.Ordered {
				num = 0
			}
			num++
			sb.WriteString(strconv.Itoa(num) + ". ")
		}
		sb.WriteString(text)
		prev = &n
	}

	return sb.String()
}

func markdownInline(spans []Span) string {
	var sb strings.Builder
	for _, sp := range spans {
		switch sp.Kind {
		case SpanText:
			sb.WriteString(collapseSpace(sp.Text))
		case SpanBold:
			writeWrapped(&sb, "**", markdownInline(Tokenize(sp.Inner)))
		case SpanItalic:
			writeWrapped(&sb, "*", markdownInline(Tokenize(sp.Inner)))
		case SpanLink:
			text := strings.TrimSpace(markdownInline(Tokenize(sp.Inner)))
			if sp.Href == "" {
				sb.WriteString(text)
				continue
			}
			if text == "" {
				text = sp.Href
			}
			sb.WriteString("[" + text + "](" + strings.Join(strings.Fields(sp.Href), "") + ")")
		}
	}
	return sb.String()
}

// writeWrapped keeps surrounding whitespace outside the markers so the
// result stays valid Markdown.
func writeWrapped(sb *strings.Builder, marker, inner string) {
	trimmed := strings.TrimSpace(inner)
	if trimmed == "" {
		sb.WriteString(inner)
		return
	}
	if strings.HasPrefix(inner, " ") {
		sb.WriteString(" ")
	}
	sb.WriteString(marker + trimmed + marker)
	if strings.HasSuffix(inner, " ") {
		sb.WriteString(" ")
	}
}

func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	lead := isSpace(s[0])
	trail := isSpace(s[len(s)-1])
	out := strings.Join(strings.Fields(s), " ")
	if out == "" {
		return " "
	}
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}
