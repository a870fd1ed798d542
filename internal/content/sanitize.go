package content

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxSanitizePasses = 4

const (
	dangerousElements = "script, style, iframe, object, embed, form, link, meta, base, textarea, input, button, select, " +
		"noscript, template, xmp, plaintext, noembed, noframes, frame, frameset, applet"
	inlineMarkdownHosts = "p, li, h1, h2, h3, h4, h5, h6, td, th, blockquote, figcaption"
	emptyBlockWrappers  = "p, div, section, article, li, ul, ol, h1, h2, h3, h4, h5, h6, blockquote, center"
	emptyInlineWrappers = "span, strong, em, b, i, u, a, font"
	duplicateWrappers   = "div, span, strong, em, b, i, u, section, article, blockquote, ul, ol"
	keepWhenEmpty       = "img, picture, video, audio, svg, table, hr"
)

var (
	anchorTag      = regexp.MustCompile(`(?i)<a\s+([^>]*)>`)
	anchorJunk     = regexp.MustCompile(`(?i)hrefhttps?|target_blank|relnoopen|stylecolor`)
	anchorDomain   = regexp.MustCompile(`[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}(?:/[^\s"'<>=]*)?`)
	styleColorJunk = regexp.MustCompile(`(?i)stylecolor\s*:?\s*[^\s">;]*;?`)
	markupInHref   = regexp.MustCompile(`(?i)(href="[^"<]*)</?(?:strong|b|em|i)>`)
	brokenBold     = regexp.MustCompile(`\*\*([A-Z])\*\*([a-z])`)
	encodedTag     = regexp.MustCompile(`(?i)&(?:lt|#0*60|#x0*3c);\s*(/?)\s*(h[1-6]|p|strong|em|ul|ol|li)\s*&(?:gt|#0*62|#x0*3e);`)
	templateLabels = regexp.MustCompile(`(?im)(^|<(?:p|h[1-6]|li|div)\b[^>]*>)([ \t]*(?:#{1,6}[ \t]+)?)(?:(?:H[1-6]|Title|Hook Introduction|Call[- ]to[- ]Action|Conclusion)[ \t]*:[ \t]*)+`)
	markdownHead   = regexp.MustCompile(`(?m)^[ \t]*(#{1,6})[ \t]+(.+?)[ \t]*$`)
	headingPrefix  = regexp.MustCompile(`^(#{1,6})[ \t]+`)
	bulletPrefix   = regexp.MustCompile(`^[\s\x{00a0}]*(?:[-*+]|•)[\s\x{00a0}]+`)
	attrName       = regexp.MustCompile(`^[a-z][a-z0-9_:.-]*$`)
)

// SanitizeHTML produces safe, well-formed HTML for storage. Malformed
// attribute sequences are repaired, Markdown is rendered, external links get
// rel="noopener noreferrer" (plus target="_blank" when fully qualified),
// images get loading="lazy", empty and doubled wrappers collapse and runs of
// "-"/"•" paragraphs become one list. SanitizeHTML(SanitizeHTML(x)) equals
// SanitizeHTML(x).
func SanitizeHTML(s string) string {
	out := sanitizeOnce(s)
	for i := 1; i < maxSanitizePasses; i++ {
		next := sanitizeOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func sanitizeOnce(s string) string {
	s = repairMarkup(s)

	if blockTag.MatchString(s) {
		s = markdownHead.ReplaceAllStringFunc(s, func(line string) string {
			m := markdownHead.FindStringSubmatch(line)
			tag := "h" + strconv.Itoa(len(m[1]))
			return "<" + tag + ">" + strings.TrimRight(m[2], "# \t") + "</" + tag + ">"
		})
	} else {
		s = renderHTML(ParseBlocks(s))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return html.EscapeString(PlainText(s))
	}
	body := doc.Find("body")

	removeDangerous(body)
	promoteHeadings(body)
	renderInlineMarkdown(body)
	normalizeLinks(body)
	body.Find("img").SetAttr("loading", "lazy")
	promoteBullets(body)
	for collapseWrappers(body) {
	}

	out, err := body.Html()
	if err != nil {
		return html.EscapeString(PlainText(s))
	}
	return strings.TrimSpace(out)
}

// repairMarkup fixes the malformed sequences listed in MalformedPatterns
// before the document is parsed.
func repairMarkup(s string) string {
	s = anchorTag.ReplaceAllStringFunc(s, func(tag string) string {
		attrs := anchorTag.FindStringSubmatch(tag)[1]
		if !anchorJunk.MatchString(attrs) {
			return tag
		}
		attrs = styleColorJunk.ReplaceAllString(attrs, "")
		if d := anchorDomain.FindString(anchorJunk.ReplaceAllString(attrs, " ")); d != "" {
			return `<a href="https://` + d + `">`
		}
		return "<a>"
	})
	for markupInHref.MatchString(s) {
		s = markupInHref.ReplaceAllString(s, "$1")
	}
	s = styleColorJunk.ReplaceAllString(s, "")
	s = encodedTag.ReplaceAllString(s, "<$1$2>")
	s = brokenBold.ReplaceAllString(s, "**$1$2")
	s = templateLabels.ReplaceAllString(s, "$1$2")
	return s
}

func removeDangerous(body *goquery.Selection) {
	body.Find(dangerousElements).Remove()

	body.Find("*").Each(func(_ int, sel *goquery.Selection) {
		n := sel.Get(0)
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			switch {
			case !attrName.MatchString(key):
			case strings.HasPrefix(key, "on"):
			case (key == "href" || key == "src" || key == "action" || key == "formaction" || key == "xlink:href") && unsafeURL(a.Val):
			case key == "style" && strings.Contains(strings.ToLower(a.Val), "expression("):
			default:
				kept = append(kept, a)
			}
		}
		n.Attr = kept
	})
}

func unsafeURL(v string) bool {
	var sb strings.Builder
	for _, c := range strings.ToLower(v) {
		if c > ' ' {
			sb.WriteRune(c)
		}
	}
	u := sb.String()
	return strings.HasPrefix(u, "javascript:") || strings.HasPrefix(u, "vbscript:") || strings.HasPrefix(u, "data:text/html")
}

// promoteHeadings turns paragraphs that still start with Markdown hashes into
// real headings.
func promoteHeadings(body *goquery.Selection) {
	body.Find("p").Each(func(_ int, sel *goquery.Selection) {
		inner, err := sel.Html()
		if err != nil {
			return
		}
		inner = strings.TrimSpace(inner)
		m := headingPrefix.FindStringSubmatch(inner)
		if m == nil {
			return
		}
		tag := "h" + strconv.Itoa(len(m[1]))
		text := strings.TrimRight(inner[len(m[0]):], "# \t")
		sel.ReplaceWithHtml("<" + tag + ">" + text + "</" + tag + ">")
	})
}

func renderInlineMarkdown(body *goquery.Selection) {
	body.Find(inlineMarkdownHosts).Each(func(_ int, sel *goquery.Selection) {
		inner, err := sel.Html()
		if err != nil || (!strings.Contains(inner, "*") && !strings.Contains(inner, "](")) {
			return
		}
		if rendered := renderInline(Tokenize(inner)); rendered != inner {
			sel.SetHtml(rendered)
		}
	})
}

func normalizeLinks(body *goquery.Selection) {
	body.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.Join(strings.Fields(anyTag.ReplaceAllString(href, "")), "")
		if href == "" {
			sel.RemoveAttr("href")
			return
		}
		sel.SetAttr("href", href)

		lower := strings.ToLower(href)
		qualified := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
		if !qualified && !strings.HasPrefix(lower, "//") {
			return
		}

		rel := strings.Fields(sel.AttrOr("rel", ""))
		for _, want := range []string{"noopener", "noreferrer"} {
			if !containsFold(rel, want) {
				rel = append(rel, want)
			}
		}
		sel.SetAttr("rel", strings.Join(rel, " "))
		if qualified {
			sel.SetAttr("target", "_blank")
		}
	})
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// promoteBullets groups consecutive paragraphs that begin with a bullet
// character into a single <ul>.
func promoteBullets(body *goquery.Selection) {
	consumed := make(map[*nethtml.Node]bool)

	for _, p := range body.Find("p").Nodes {
		if consumed[p] || !isBulletParagraph(p) {
			continue
		}

		group := []*nethtml.Node{p}
		var between []*nethtml.Node
		for sib := p.NextSibling; sib != nil; sib = sib.NextSibling {
			if sib.Type == nethtml.TextNode && strings.TrimSpace(sib.Data) == "" {
				between = append(between, sib)
				continue
			}
			if sib.Type == nethtml.ElementNode && sib.DataAtom == atom.P && isBulletParagraph(sib) {
				group = append(group, sib)
				continue
			}
			break
		}

		parent := p.Parent
		ul := &nethtml.Node{Type: nethtml.ElementNode, Data: "ul", DataAtom: atom.Ul}
		parent.InsertBefore(ul, p)

		for _, item := range group {
			consumed[item] = true
			li := &nethtml.Node{Type: nethtml.ElementNode, Data: "li", DataAtom: atom.Li}
			moveChildren(item, li, nil)
			stripBullet(li)
			parent.RemoveChild(item)
			ul.AppendChild(li)
		}
		for _, ws := range between {
			if ws.Parent == parent && ws.PrevSibling != nil && ws.PrevSibling == ul {
				parent.RemoveChild(ws)
			}
		}
	}
}

func isBulletParagraph(p *nethtml.Node) bool {
	first := p.FirstChild
	for first != nil && first.Type == nethtml.TextNode && strings.TrimSpace(first.Data) == "" {
		first = first.NextSibling
	}
	return first != nil && first.Type == nethtml.TextNode && bulletPrefix.MatchString(first.Data)
}

func stripBullet(li *nethtml.Node) {
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != nethtml.TextNode {
			return
		}
		if loc := bulletPrefix.FindStringIndex(c.Data); loc != nil {
			c.Data = c.Data[loc[1]:]
			return
		}
	}
}

// collapseWrappers removes empty wrappers and unwraps an element whose only
// child is the same element. It reports whether anything changed.
func collapseWrappers(body *goquery.Selection) bool {
	changed := false

	body.Find(emptyBlockWrappers).Each(func(_ int, sel *goquery.Selection) {
		if isEmptyWrapper(sel) {
			sel.Remove()
			changed = true
		}
	})

	body.Find(emptyInlineWrappers).Each(func(_ int, sel *goquery.Selection) {
		if !isEmptyWrapper(sel) {
			return
		}
		n := sel.Get(0)
		if n.Parent == nil {
			return
		}
		if text := sel.Text(); text != "" {
			n.Parent.InsertBefore(&nethtml.Node{Type: nethtml.TextNode, Data: text}, n)
		}
		n.Parent.RemoveChild(n)
		changed = true
	})

	body.Find(duplicateWrappers).Each(func(_ int, sel *goquery.Selection) {
		n := sel.Get(0)
		child := onlyElementChild(n)
		if child == nil || child.Data != n.Data {
			return
		}
		moveChildren(child, n, child)
		n.RemoveChild(child)
		changed = true
	})

	return changed
}

func isEmptyWrapper(sel *goquery.Selection) bool {
	return strings.TrimSpace(sel.Text()) == "" && sel.Find(keepWhenEmpty).Length() == 0
}

func onlyElementChild(n *nethtml.Node) *nethtml.Node {
	var only *nethtml.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case nethtml.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		case nethtml.ElementNode:
			if only != nil {
				return nil
			}
			only = c
		default:
			return nil
		}
	}
	return only
}

// moveChildren moves every child of from into to, before the node at, or at
// the end when at is nil.
func moveChildren(from, to, at *nethtml.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		if at != nil {
			to.InsertBefore(c, at)
		} else {
			to.AppendChild(c)
		}
		c = next
	}
}
