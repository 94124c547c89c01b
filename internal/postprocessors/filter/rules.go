// Package filter rejects low-quality records.
//
// Local checks (length band, error-page signatures) run inside every job
// pipeline. The Global filter re-applies them during merge and adds
// cross-document boilerplate detection.
package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// signatureWindow is how many leading runes of a record are searched for
// an error signature.
const signatureWindow = 300

// Rules are the thresholds and phrase lists shared by both filters.
type Rules struct {
	MinLen               int
	MaxLen               int
	ErrorSignatures      []string
	BoilerplateThreshold int
}

// RulesFrom extracts filter rules from the pipeline configuration.
func RulesFrom(cfg domain.Config) Rules {
	sigs := make([]string, 0, len(cfg.Rules.ErrorSignatures))
	for _, s := range cfg.Rules.ErrorSignatures {
		if s = Normalise(s); s != "" {
			sigs = append(sigs, s)
		}
	}
	return Rules{
		MinLen:               cfg.MinChunkLen,
		MaxLen:               cfg.MaxChunkLen,
		ErrorSignatures:      sigs,
		BoilerplateThreshold: cfg.BoilerplateThreshold,
	}
}

// Check returns the reason a record fails the local checks, or "" when it
// passes.
func (r Rules) Check(rec *domain.Record) domain.FilterReason {
	n := utf8.RuneCountInString(rec.Text)
	if n == 0 || n < r.MinLen || n > r.MaxLen {
		return domain.FilterLength
	}
	if r.isErrorPage(rec) {
		return domain.FilterErrorPage
	}
	return ""
}

func (r Rules) isErrorPage(rec *domain.Record) bool {
	text := Normalise(rec.Text)
	head := text
	if runes := []rune(text); len(runes) > signatureWindow {
		head = string(runes[:signatureWindow])
	}
	title := Normalise(rec.Title)
	for _, sig := range r.ErrorSignatures {
		if text == sig || title == sig {
			return true
		}
		// Bare status codes also appear in phone numbers and course
		// codes, so they only count as the leading token of a title.
		if isNumeric(sig) {
			if strings.HasPrefix(title, sig) && !isWordRune(firstRune(title[len(sig):])) {
				return true
			}
			continue
		}
		if containsWord(head, sig) || containsWord(title, sig) {
			return true
		}
	}
	return false
}

// containsWord reports whether sig occurs in s with no letter or digit
// directly before or after it.
func containsWord(s, sig string) bool {
	for from := 0; from <= len(s)-len(sig); {
		i := strings.Index(s[from:], sig)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(sig)
		if !isWordRune(lastRune(s[:start])) && !isWordRune(firstRune(s[end:])) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	if s == "" {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	if s == "" {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

// Normalise lowercases s and collapses whitespace runs to single spaces.
func Normalise(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
