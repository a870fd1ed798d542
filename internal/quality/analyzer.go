package quality

import (
	"net/url"
	"regexp"
	"strings"

	"content_publisher/internal/content"
	"content_publisher/internal/domain"
)

const (
	weightHeadings     = 20
	weightParagraphs   = 20
	weightPlaceholders = 15
	weightMalformed    = 15
	weightLength       = 15
	weightTargetLink   = 15

	MinWords   = 300
	ShortWords = 150

	// Threshold is the score below which content is queued for adjustment.
	Threshold = 70
	// CriticalIssues is the issue count that queues content regardless of score.
	CriticalIssues = 3
	// HighQuality content with no malformed markup can skip adjustment.
	HighQuality = 85
)

var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[(?:insert|add|your|placeholder)[^\]]*\]`),
	regexp.MustCompile(`\{\{[^}]*\}\}`),
	regexp.MustCompile(`(?i)lorem ipsum`),
	regexp.MustCompile(`(?im)^[ \t]*(?:<[^>]+>[ \t]*)*(?:#{1,6}[ \t]+)?(?:H[1-6]|Title|Hook Introduction|Call[- ]to[- ]Action|Conclusion)[ \t]*:`),
}

// Analyze scores body from 0 to 100 using structure, placeholder residue,
// malformed markup, length and the link to targetURL. An empty targetURL
// gives the link signal full credit.
func Analyze(body, targetURL string) domain.QualityMetrics {
	var m domain.QualityMetrics

	malformed := content.FindMalformed(body)
	m.HasMalformedPatterns = len(malformed) > 0
	for _, name := range malformed {
		m.Issues = append(m.Issues, "malformed markup: "+name)
	}

	nodes := content.ParseBlocks(body)
	m.WordCount = countWords(nodes)
	if m.WordCount == 0 {
		m.Issues = append(m.Issues, "content is empty")
		return m
	}

	score := 0

	headings, paragraphs := 0, 0
	for _, n := range nodes {
		switch n.Kind {
		case content.NodeHeading:
			headings++
		case content.NodeParagraph:
			paragraphs++
		}
	}
	if headings > 0 {
		score += weightHeadings
	} else {
		m.Issues = append(m.Issues, "no headings")
	}

	switch {
	case paragraphs >= 2:
		score += weightParagraphs
	case paragraphs == 1:
		score += weightParagraphs / 2
		m.Warnings = append(m.Warnings, "only one paragraph")
	default:
		m.Issues = append(m.Issues, "no paragraphs")
	}

	if hasPlaceholders(body) {
		m.Issues = append(m.Issues, "template placeholders left in content")
	} else {
		score += weightPlaceholders
	}

	if !m.HasMalformedPatterns {
		score += weightMalformed
	}

	switch {
	case m.WordCount >= MinWords:
		score += weightLength
	case m.WordCount >= ShortWords:
		score += weightLength / 2
		m.Warnings = append(m.Warnings, "content is short")
	default:
		m.Issues = append(m.Issues, "content is too short")
	}

	linkScore, issue := scoreTargetLink(nodes, body, targetURL)
	score += linkScore
	if issue != "" {
		m.Issues = append(m.Issues, issue)
	}

	m.Score = min(max(score, 0), 100)
	return m
}

// NeedsAdjustment reports whether m should be queued for the auto-adjuster.
func NeedsAdjustment(m domain.QualityMetrics) bool {
	return m.Score < Threshold || m.HasMalformedPatterns || len(m.Issues) >= CriticalIssues
}

// HighPriority marks content that is critical or carries broken markup.
func HighPriority(m domain.QualityMetrics) bool {
	return m.Band() == domain.BandCritical || m.HasMalformedPatterns
}

func IsHighQuality(m domain.QualityMetrics) bool {
	return m.Score >= HighQuality && !m.HasMalformedPatterns
}

func countWords(nodes []content.Node) int {
	words := 0
	for _, n := range nodes {
		words += len(strings.Fields(n.Text()))
	}
	return words
}

func hasPlaceholders(body string) bool {
	for _, p := range placeholderPatterns {
		if p.MatchString(body) {
			return true
		}
	}
	return false
}

func scoreTargetLink(nodes []content.Node, body, targetURL string) (int, string) {
	target := normalizeURL(targetURL)
	if target == "" {
		return weightTargetLink, ""
	}

	for _, n := range nodes {
		for _, href := range linkHrefs(n.Spans) {
			if normalizeURL(href) != target {
				continue
			}
			if wellFormed(href) {
				return weightTargetLink, ""
			}
			return weightTargetLink / 3, "link to target is malformed"
		}
	}

	if strings.Contains(strings.ToLower(body), target) {
		return weightTargetLink / 3, "target URL is not linked"
	}
	return 0, "missing link to target URL"
}

func linkHrefs(spans []content.Span) []string {
	var hrefs []string
	for _, sp := range spans {
		switch sp.Kind {
		case content.SpanLink:
			hrefs = append(hrefs, sp.Href)
			hrefs = append(hrefs, linkHrefs(content.Tokenize(sp.Inner))...)
		case content.SpanBold, content.SpanItalic:
			hrefs = append(hrefs, linkHrefs(content.Tokenize(sp.Inner))...)
		}
	}
	return hrefs
}

func wellFormed(href string) bool {
	if strings.ContainsAny(href, " \t\n<>\"") {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// normalizeURL reduces a URL to host and path for comparison.
func normalizeURL(raw string) string {
	s := strings.ToLower(strings.Join(strings.Fields(content.PlainText(raw)), ""))
	for _, prefix := range []string{"https://", "http://", "//"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimRight(s, "/")
}
