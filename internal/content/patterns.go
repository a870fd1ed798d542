package content

import "regexp"

// MalformedPattern is a known-bad markup sequence left behind by generators
// and rich-text editors. SanitizeHTML repairs every one of them.
type MalformedPattern struct {
	Name string
	Expr *regexp.Regexp
}

var MalformedPatterns = []MalformedPattern{
	{Name: "markup inside href", Expr: regexp.MustCompile(`(?i)href="[^"]*</?(?:strong|b|em|i)>`)},
	{Name: "merged hrefhttps attribute", Expr: regexp.MustCompile(`(?i)hrefhttps?\s*=\s*""`)},
	{Name: "whitespace inside href", Expr: regexp.MustCompile(`href="[^"]*\s+[^"]*">`)},
	{Name: "merged stylecolor attribute", Expr: regexp.MustCompile(`(?i)stylecolor`)},
	{Name: "broken bold marker", Expr: regexp.MustCompile(`\*\*[A-Z]\*\*[a-z]`)},
	{Name: "encoded block tag", Expr: regexp.MustCompile(`(?i)&(?:lt|#0*60|#x0*3c);\s*/?\s*(?:h[1-6]|p|strong|em|ul|ol|li)\s*&(?:gt|#0*62|#x0*3e);`)},
}

// FindMalformed returns the names of the malformed patterns present in s.
func FindMalformed(s string) []string {
	var found []string
	for _, p := range MalformedPatterns {
		if p.Expr.MatchString(s) {
			found = append(found, p.Name)
		}
	}
	return found
}
