package content

import (
	"regexp"
	"strconv"
	"strings"
)

type NodeKind int

const (
	NodeHeading NodeKind = iota
	NodeParagraph
	NodeListItem
)

// Node is one block of a document. Level is set for headings, Ordered for
// list items that came from a numbered marker.
type Node struct {
	Kind    NodeKind
	Level   int
	Ordered bool
	Spans   []Span
}

// Text returns the node content as plain text.
func (n Node) Text() string {
	var sb strings.Builder
	for _, sp := range n.Spans {
		sb.WriteString(sp.Text)
	}
	return strings.TrimSpace(sb.String())
}

var (
	headingLine   = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)[ \t#]*$`)
	bulletLine    = regexp.MustCompile(`^(?:[-*+]|•)[ \t]+(.*)$`)
	orderedLine   = regexp.MustCompile(`^\d{1,3}[.)][ \t]+(.*)$`)
	blockTag      = regexp.MustCompile(`(?i)<(/?)(h[1-6]|p|div|li|ul|ol|br|section|article|blockquote|header|footer|main|table|tr|td|th|figure|figcaption|hr)\b[^>]*?(/?)>`)
	droppedBlocks = regexp.MustCompile(`(?is)<(script|style|iframe|object|embed|form|template|noscript)\b.*?</(script|style|iframe|object|embed|form|template|noscript)>`)
)

// ParseBlocks turns canonical content into an ordered node list. It accepts
// Markdown, HTML and any mix of the two and never fails: input it cannot
// structure comes back as paragraphs of plain text.
func ParseBlocks(s string) []Node {
	p := &blockParser{}
	for _, line := range strings.Split(flattenBlocks(s), "\n") {
		p.line(strings.TrimSpace(line))
	}
	p.flush()
	return p.nodes
}

type blockParser struct {
	nodes   []Node
	pending []string
}

func (p *blockParser) line(line string) {
	if line == "" {
		p.flush()
		return
	}

	if m := headingLine.FindStringSubmatch(line); m != nil {
		p.flush()
		p.add(Node{Kind: NodeHeading, Level: len(m[1]), Spans: Tokenize(m[2])})
		return
	}
	if m := bulletLine.FindStringSubmatch(line); m != nil {
		p.flush()
		p.add(Node{Kind: NodeListItem, Spans: Tokenize(m[1])})
		return
	}
	if m := orderedLine.FindStringSubmatch(line); m != nil {
		p.flush()
		p.add(Node{Kind: NodeListItem, Ordered: true, Spans: Tokenize(m[1])})
		return
	}

	p.pending = append(p.pending, line)
}

func (p *blockParser) flush() {
	if len(p.pending) == 0 {
		return
	}
	text := strings.Join(p.pending, " ")
	p.pending = p.pending[:0]
	p.add(Node{Kind: NodeParagraph, Spans: Tokenize(text)})
}

// add drops nodes that carry neither visible text nor an image.
func (p *blockParser) add(n Node) {
	if n.Text() == "" && !strings.Contains(asciiLower(Join(n.Spans)), "<img") {
		return
	}
	p.nodes = append(p.nodes, n)
}

// flattenBlocks rewrites block-level HTML into line-oriented Markdown markers
// so that a single line parser handles both dialects.
func flattenBlocks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = droppedBlocks.ReplaceAllString(s, "\n")

	ordered := 0
	return blockTag.ReplaceAllStringFunc(s, func(tag string) string {
		m := blockTag.FindStringSubmatch(tag)
		closing := m[1] == "/"
		name := strings.ToLower(m[2])

		switch {
		case name[0] == 'h' && len(name) == 2 && name[1] >= '1' && name[1] <= '6':
			if closing {
				return "\n\n"
			}
			level, _ := strconv.Atoi(name[1:])
			return "\n\n" + strings.Repeat("#", level) + " "
		case name == "ol":
			if closing {
				ordered = 0
			} else {
				ordered = 1
			}
			return "\n\n"
		case name == "li":
			if closing {
				return "\n"
			}
			if ordered > 0 {
				marker := strconv.Itoa(ordered) + ". "
				ordered++
				return "\n" + marker
			}
			return "\n- "
		case name == "br":
			return "\n"
		default:
			return "\n\n"
		}
	})
}
