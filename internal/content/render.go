package content

import (
	"html"
	"strconv"
	"strings"
)

// renderHTML builds HTML from parsed blocks. Consecutive list items share
// one list element.
func renderHTML(nodes []Node) string {
	var sb strings.Builder
	openList := ""

	closeList := func() {
		if openList != "" {
			sb.WriteString("</" + openList + ">")
			openList = ""
		}
	}

	for _, n := range nodes {
		switch n.Kind {
		case NodeHeading:
			closeList()
			tag := "h" + strconv.Itoa(n.Level)
			sb.WriteString("<" + tag + ">" + strings.TrimSpace(renderInline(n.Spans)) + "</" + tag + ">")
		case NodeListItem:
			want := "ul"
			if n.Ordered {
				want = "ol"
			}
			if openList != want {
				closeList()
				sb.WriteString("<" + want + ">")
				openList = want
			}
			sb.WriteString("<li>" + strings.TrimSpace(renderInline(n.Spans)) + "</li>")
		default:
			closeList()
			sb.WriteString("<p>" + strings.TrimSpace(renderInline(n.Spans)) + "</p>")
		}
	}
	closeList()

	return sb.String()
}

// renderInline emits text spans untouched and rewrites formatted spans in
// their canonical HTML form.
func renderInline(spans []Span) string {
	var sb strings.Builder
	for _, sp := range spans {
		switch sp.Kind {
		case SpanText:
			sb.WriteString(sp.Raw)
		case SpanBold:
			sb.WriteString("<strong>" + renderInline(Tokenize(sp.Inner)) + "</strong>")
		case SpanItalic:
			sb.WriteString("<em>" + renderInline(Tokenize(sp.Inner)) + "</em>")
		case SpanLink:
			inner := renderInline(Tokenize(sp.Inner))
			if sp.Href == "" {
				sb.WriteString(inner)
				continue
			}
			sb.WriteString(`<a href="` + html.EscapeString(sp.Href) + `">` + inner + "</a>")
		}
	}
	return sb.String()
}
