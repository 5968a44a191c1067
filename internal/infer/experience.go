package infer

import (
	"math"
	"regexp"
	"strconv"

	"github.com/jimezsa/jobfinder/internal/models"
)

// MaxPlausibleYears caps inferred experience; larger numbers are almost always
// unrelated figures caught by the patterns.
const MaxPlausibleYears = 10

var (
	yearsPattern   = regexp.MustCompile(`(\d+)\s*\+?\s*(?:years?|yrs?)`)
	rangePattern   = regexp.MustCompile(`(\d+)\s*[-–—to]+\s*(\d+)\s*(?:years?|yrs?)`)
	minimumPattern = regexp.MustCompile(`minimum\s*(?:of)?\s*(\d+)\s*(?:years?|yrs?)`)
	entryPattern   = regexp.MustCompile(`entry[-\s]level|no experience required|junior`)
)

// Experience returns the required years of experience as a decimal string,
// "0" for entry-level postings, or models.NotSpecified.
func Experience(description string) string {
	if description == "" {
		return models.NotSpecified
	}

	text := normalize(description)
	candidates := yearCandidates(text)
	if len(candidates) > 0 {
		maxYears := candidates[0]
		for _, years := range candidates[1:] {
			if years > maxYears {
				maxYears = years
			}
		}
		if maxYears > MaxPlausibleYears {
			return models.NotSpecified
		}
		return strconv.Itoa(maxYears)
	}

	if entryPattern.MatchString(text) {
		return "0"
	}
	return models.NotSpecified
}

// yearCandidates collects every number matched by the three pattern
// families. Both ends of a range count as candidates.
func yearCandidates(text string) []int {
	var out []int
	for _, m := range yearsPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, parseYears(m[1]))
	}
	for _, m := range rangePattern.FindAllStringSubmatch(text, -1) {
		out = append(out, parseYears(m[1]), parseYears(m[2]))
	}
	for _, m := range minimumPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, parseYears(m[1]))
	}
	return out
}

// parseYears never fails: digit runs too long for an int are noise and land
// above the cap.
func parseYears(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return math.MaxInt
	}
	return n
}
