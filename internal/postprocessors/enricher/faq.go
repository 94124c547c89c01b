package enricher

import (
	"strings"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// FAQClassifier links records to quick-answer topics. The category is
// advisory metadata only.
type FAQClassifier struct {
	entries   []domain.FAQEntry
	threshold float64
}

// NewFAQClassifier returns a classifier over the FAQ table.
func NewFAQClassifier(entries []domain.FAQEntry, threshold float64) *FAQClassifier {
	return &FAQClassifier{entries: entries, threshold: threshold}
}

// Classify returns the category whose canonical question is most similar
// to any of the candidate labels, when the similarity reaches the
// threshold. Otherwise a source URL under an entry's URL selects that
// entry. Returns "" when nothing matches.
func (c *FAQClassifier) Classify(sourceURL string, labels ...string) string {
	bestScore := 0.0
	bestCategory := ""
	for _, entry := range c.entries {
		for _, q := range entry.Questions {
			q = normalise(q)
			for _, label := range labels {
				label = normalise(label)
				if label == "" {
					continue
				}
				if score := Similarity(label, q); score > bestScore {
					bestScore = score
					bestCategory = entry.Category
				}
			}
		}
	}
	if bestScore >= c.threshold {
		return bestCategory
	}

	source := trimURL(sourceURL)
	for _, entry := range c.entries {
		if entry.URL == "" {
			continue
		}
		prefix := trimURL(entry.URL)
		if source == prefix || strings.HasPrefix(source, prefix+"/") {
			return entry.Category
		}
	}
	return ""
}

func normalise(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// trimURL drops scheme, fragment, query and trailing slash.
func trimURL(u string) string {
	u = strings.ToLower(u)
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexAny(u, "#?"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}
