// Package infer derives structured requirements from free-text job
// descriptions. Every function here is pure.
package infer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jimezsa/jobfinder/internal/models"
)

type DegreeLevel string

const (
	DegreeBachelor     DegreeLevel = "Bachelor's"
	DegreeMaster       DegreeLevel = "Master's"
	DegreePhD          DegreeLevel = "PhD"
	DegreeUnspecified  DegreeLevel = "Degree (Unspecified)"
	DegreeNotSpecified DegreeLevel = models.NotSpecified
)

type degreeRule struct {
	pattern *regexp.Regexp
	level   DegreeLevel
}

// Checked in order; the first match wins, so "bachelor's or master's"
// resolves to Bachelor's.
var degreeRules = []degreeRule{
	{regexp.MustCompile(`\bbachelor['s]*\b|\bb\.?s\.?c?\.?\b|\bb\.?a\.?\b|\bundergraduate\b`), DegreeBachelor},
	{regexp.MustCompile(`\bmaster['s]*\b|\bm\.?s\.?c?\.?\b|\bmba\b|\bm\.?a\.?\b`), DegreeMaster},
	{regexp.MustCompile(`\bph\.?d\.?\b|\bdoctoral\b|\bdoctorate\b`), DegreePhD},
}

var genericDegree = regexp.MustCompile(`\bdegree\b`)

// Degree returns the highest-priority degree level mentioned in description.
func Degree(description string) DegreeLevel {
	if description == "" {
		return DegreeNotSpecified
	}

	text := normalize(description)
	for _, rule := range degreeRules {
		if rule.pattern.MatchString(text) {
			return rule.level
		}
	}
	if genericDegree.MatchString(text) {
		return DegreeUnspecified
	}
	return DegreeNotSpecified
}

// normalize lowercases text and folds it to ASCII where the patterns care:
// Unicode spaces (including the U+00A0 left by &nbsp;) become ' ', decimal
// digits from any script become their ASCII digit, and other non-ASCII letters
// and numbers become '_' so \b still treats them as word characters. None of
// the patterns contain '_'.
func normalize(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < utf8.RuneSelf:
			if r >= 0x1c && r <= 0x1f {
				return ' '
			}
			return r
		case unicode.IsSpace(r):
			return ' '
		case unicode.Is(unicode.Nd, r):
			return '0' + digitValue(r)
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			return '_'
		}
		return r
	}, strings.ToLower(text))
}

// digitValue relies on every Nd range being made of whole 0-9 runs.
func digitValue(r rune) rune {
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return ((r - lo) / rune(rg.Stride)) % 10
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return ((r - lo) / rune(rg.Stride)) % 10
		}
	}
	return 0
}
