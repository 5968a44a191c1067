package models

// SearchParams captures the inputs of one pipeline run.
type SearchParams struct {
	Query    string
	Location string
	Limit    int
}
