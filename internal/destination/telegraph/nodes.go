package telegraph

import (
	"net/url"
	"strings"

	"content_publisher/internal/content"
)

// Node is an element of the Telegraph DOM. Children holds strings and *Node.
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []any             `json:"children,omitempty"`
}

// ToNodes converts parsed blocks into Telegraph content. Telegraph only
// renders h3 and h4, so top-level headings map to h3 and the rest to h4.
func ToNodes(blocks []content.Node) []any {
	var out []any
	var list *Node

	for _, b := range blocks {
		children := inline(b.Spans)
		if len(children) == 0 {
			continue
		}

		if b.Kind == content.NodeListItem {
			tag := "ul"
			if b.Ordered {
				tag = "ol"
			}
			if list == nil || list.Tag != tag {
				list = &Node{Tag: tag}
				out = append(out, list)
			}
			list.Children = append(list.Children, &Node{Tag: "li", Children: children})
			continue
		}
		list = nil

		tag := "p"
		if b.Kind == content.NodeHeading {
			tag = "h4"
			if b.Level <= 2 {
				tag = "h3"
			}
		}
		out = append(out, &Node{Tag: tag, Children: trimEdges(children)})
	}

	return out
}

func inline(spans []content.Span) []any {
	var out []any
	for _, sp := range spans {
		switch sp.Kind {
		case content.SpanBold:
			if c := inline(content.Tokenize(sp.Inner)); len(c) > 0 {
				out = append(out, &Node{Tag: "strong", Children: c})
			}
		case content.SpanItalic:
			if c := inline(content.Tokenize(sp.Inner)); len(c) > 0 {
				out = append(out, &Node{Tag: "em", Children: c})
			}
		case content.SpanLink:
			c := inline(content.Tokenize(sp.Inner))
			if len(c) == 0 {
				continue
			}
			if !allowedHref(sp.Href) {
				out = append(out, c...)
				continue
			}
			out = append(out, &Node{Tag: "a", Attrs: map[string]string{"href": sp.Href}, Children: c})
		default:
			if text := sp.Text; text != "" {
				out = append(out, text)
			}
		}
	}
	return out
}

func allowedHref(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func trimEdges(children []any) []any {
	if s, ok := children[0].(string); ok {
		children[0] = strings.TrimLeft(s, " \t")
	}
	last := len(children) - 1
	if s, ok := children[last].(string); ok {
		children[last] = strings.TrimRight(s, " \t")
	}
	return children
}
