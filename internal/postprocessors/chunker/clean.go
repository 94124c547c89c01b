package chunker

import (
	"regexp"
	"strings"
)

var (
	pageNumberLine = regexp.MustCompile(`^(?i:page\s*)?\d{1,4}$`)
	spaceRun       = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
)

// cleanPage removes noise patterns and bare page numbers from a PDF page
// and collapses horizontal whitespace. Blank lines are dropped.
func (p *Processor) cleanPage(body string) string {
	for _, re := range p.noiseRe {
		body = re.ReplaceAllString(body, "")
	}

	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line == "" || pageNumberLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
