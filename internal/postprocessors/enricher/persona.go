package enricher

import (
	"net/url"
	"sort"
	"strings"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// PersonaTagger maps URLs to audience tags.
type PersonaTagger struct {
	rules []domain.PersonaRule
}

// NewPersonaTagger returns a tagger over an ordered rule table.
func NewPersonaTagger(rules []domain.PersonaRule) *PersonaTagger {
	return &PersonaTagger{rules: rules}
}

// Tag returns the comma-joined personas of rawURL. Within a facet the most
// specific matching rule wins (longest host plus path prefix, earlier rule
// on ties); each facet contributes at most one tag, in rule-table order.
// URLs that match nothing are tagged "all".
func (t *PersonaTagger) Tag(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.PersonaAll
	}
	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.EscapedPath())

	type hit struct {
		index int
		score int
	}
	best := make(map[string]hit)
	for i, rule := range t.rules {
		if !hostMatches(host, rule.Host) || !pathMatches(path, rule.PathPrefix) {
			continue
		}
		score := len(rule.Host) + len(rule.PathPrefix)
		if cur, ok := best[rule.Facet]; !ok || score > cur.score {
			best[rule.Facet] = hit{index: i, score: score}
		}
	}

	winners := make([]int, 0, len(best))
	for _, h := range best {
		winners = append(winners, h.index)
	}
	sort.Ints(winners)

	tags := make([]string, len(winners))
	for i, idx := range winners {
		tags[i] = t.rules[idx].Persona
	}
	return domain.JoinPersonas(tags)
}

func hostMatches(host, pattern string) bool {
	if pattern == "" {
		return true
	}
	pattern = strings.ToLower(pattern)
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

// pathMatches compares on segment boundaries so that /faculty does not
// match /faculty-senate-minutes.
func pathMatches(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	prefix = strings.TrimSuffix(strings.ToLower(prefix), "/")
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '.'
}
