package store

import (
	"testing"

	"github.com/jimezsa/jobfinder/internal/models"
)

func TestMergeRecordsExistingWins(t *testing.T) {
	existing := []models.Record{
		{Title: "Old title", URL: "https://www.linkedin.com/jobs/view/1", RetrievedAt: "2024-01-01 00:00:00"},
		{Title: "No url"},
	}
	input := []models.Record{
		{Title: "New title", URL: " https://www.linkedin.com/jobs/view/1 ", RetrievedAt: "2024-02-01 00:00:00"},
		{Title: "Fresh", URL: "https://www.linkedin.com/jobs/view/2"},
		{Title: "Fresh again", URL: "https://www.linkedin.com/jobs/view/2"},
		{Title: "Broken"},
	}

	merged, stats := MergeRecords(existing, input)
	if len(merged) != 3 {
		t.Fatalf("len(merged) = %d, want 3", len(merged))
	}
	if merged[0].Title != "Old title" || merged[0].RetrievedAt != "2024-01-01 00:00:00" {
		t.Fatalf("existing record overwritten: %+v", merged[0])
	}
	if merged[1].Title != "No url" || merged[2].Title != "Fresh" {
		t.Fatalf("merged order = %+v", merged)
	}
	want := MergeStats{TotalExisting: 2, TotalInput: 4, InvalidExisting: 1, InvalidInput: 1, Added: 1, TotalOut: 3}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	if stats.InvalidSkipped() != 1 {
		t.Fatalf("InvalidSkipped() = %d, want 1", stats.InvalidSkipped())
	}
}

func TestMergeRecordsIntoEmpty(t *testing.T) {
	input := []models.Record{{URL: "a"}, {URL: "b"}}
	merged, stats := MergeRecords(nil, input)
	if len(merged) != 2 || stats.Added != 2 {
		t.Fatalf("merged = %+v, stats = %+v", merged, stats)
	}
}
