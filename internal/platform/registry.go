package platform

import (
	"sort"
	"strings"

	"content_publisher/internal/domain"
)

// builtinAliases maps identifiers that publish callers report inconsistently
// onto catalog IDs.
var builtinAliases = map[string]string{
	"telegraph.ph": "telegraph",
	"telegra.ph":   "telegraph",
	"write.as":     "writeas",
	"medium.com":   "medium",
	"dev.to":       "devto",
	"hashnode.com": "hashnode",
	"hashnode.dev": "hashnode",
	"substack.com": "substack",
	"linkedin.com": "linkedin",
}

// Registry is the catalog of publishing destinations. It never changes after
// construction and is safe for concurrent use.
type Registry struct {
	descriptors []domain.PlatformDescriptor
	byID        map[string]int
	aliases     map[string]string
}

func NewRegistry(descriptors []domain.PlatformDescriptor) *Registry {
	r := &Registry{
		descriptors: make([]domain.PlatformDescriptor, len(descriptors)),
		byID:        make(map[string]int, len(descriptors)),
		aliases:     make(map[string]string, len(builtinAliases)),
	}
	copy(r.descriptors, descriptors)

	for i, d := range r.descriptors {
		r.byID[stripPunct(strings.ToLower(d.ID))] = i
	}
	for alias, id := range builtinAliases {
		if _, ok := r.byID[id]; ok {
			r.aliases[alias] = id
		}
	}
	for _, d := range r.descriptors {
		id := stripPunct(strings.ToLower(d.ID))
		for _, alias := range d.Aliases {
			r.aliases[strings.ToLower(strings.TrimSpace(alias))] = id
		}
	}

	return r
}

// ListActive returns active descriptors ordered by priority, then ID.
func (r *Registry) ListActive() []domain.PlatformDescriptor {
	active := make([]domain.PlatformDescriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if d.Active {
			active = append(active, d)
		}
	}
	sortByPriority(active)
	return active
}

func (r *Registry) All() []domain.PlatformDescriptor {
	out := make([]domain.PlatformDescriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Lookup resolves raw through Canonicalize before matching.
func (r *Registry) Lookup(raw string) (domain.PlatformDescriptor, bool) {
	i, ok := r.byID[r.Canonicalize(raw)]
	if !ok {
		return domain.PlatformDescriptor{}, false
	}
	return r.descriptors[i], true
}

// Canonicalize maps a reported platform identifier onto a catalog ID.
//
// Matching is case-insensitive and tolerates a URL scheme, a "www." prefix,
// a path, a trailing TLD-like suffix and punctuation. The explicit alias
// table is consulted first; the tolerant forms are accepted only when they
// hit a known ID exactly. Unknown identifiers come back lower-cased with
// punctuation removed, so they never match an active platform by accident.
func (r *Registry) Canonicalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if id, ok := r.aliases[key]; ok {
		return id
	}

	host := hostPart(key)
	if id, ok := r.aliases[host]; ok {
		return id
	}

	bare := stripPunct(host)
	if _, ok := r.byID[bare]; ok {
		return bare
	}

	if i := strings.LastIndex(host, "."); i > 0 {
		base := stripPunct(host[:i])
		if _, ok := r.byID[base]; ok {
			return base
		}
	}

	return bare
}

func hostPart(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}

func stripPunct(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

func sortByPriority(ds []domain.PlatformDescriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Priority != ds[j].Priority {
			return ds[i].Priority < ds[j].Priority
		}
		return ds[i].ID < ds[j].ID
	})
}
