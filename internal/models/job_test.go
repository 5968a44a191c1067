package models

import "testing"

func TestListingBuilderDefaults(t *testing.T) {
	got := NewListingBuilder("https://www.linkedin.com/jobs/view/1", "").Build()
	want := JobListing{
		URL:         "https://www.linkedin.com/jobs/view/1",
		Title:       NotFound,
		Company:     NotFound,
		Location:    DefaultRegion,
		Description: NotFound,
		Degree:      NotSpecified,
		Experience:  NotSpecified,
	}
	if got != want {
		t.Fatalf("Build() = %+v, want %+v", got, want)
	}
}

func TestListingBuilderKeepsSetValues(t *testing.T) {
	got := NewListingBuilder("u", "Germany").
		Title("SRE").
		Description("").
		Experience("0").
		Build()
	if got.Title != "SRE" || got.Description != "" || got.Experience != "0" {
		t.Fatalf("Build() = %+v", got)
	}
	if got.Location != "Germany" {
		t.Fatalf("Location = %q, want region default", got.Location)
	}
}
