package store

import (
	"strings"

	"github.com/jimezsa/jobfinder/internal/models"
)

// MergeStats captures stats for a merge into the stored records.
type MergeStats struct {
	TotalExisting   int
	TotalInput      int
	InvalidExisting int
	InvalidInput    int
	Added           int
	TotalOut        int
}

// InvalidSkipped returns the input records dropped for lacking a URL.
func (s MergeStats) InvalidSkipped() int {
	return s.InvalidInput
}

// Key returns the merge key of a record: its trimmed Job URL.
func Key(record models.Record) (string, bool) {
	key := strings.TrimSpace(record.URL)
	if key == "" {
		return "", false
	}
	return key, true
}

// MergeRecords appends input records whose URL is not yet stored. Existing
// records win collisions and keep their order; existing rows without a URL
// are carried over untouched.
func MergeRecords(existing []models.Record, input []models.Record) ([]models.Record, MergeStats) {
	stats := MergeStats{
		TotalExisting: len(existing),
		TotalInput:    len(input),
	}

	keys := make(map[string]struct{}, len(existing)+len(input))
	out := make([]models.Record, 0, len(existing)+len(input))

	for _, record := range existing {
		key, ok := Key(record)
		if !ok {
			stats.InvalidExisting++
			out = append(out, record)
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, record)
	}

	for _, record := range input {
		key, ok := Key(record)
		if !ok {
			stats.InvalidInput++
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, record)
		stats.Added++
	}

	stats.TotalOut = len(out)
	return out, stats
}
