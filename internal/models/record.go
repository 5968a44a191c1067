package models

// Record is the persisted row shape. URL is the merge key.
type Record struct {
	Title       string `json:"job_title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Degree      string `json:"required_degree"`
	Experience  string `json:"required_experience_years"`
	URL         string `json:"job_url"`
	RetrievedAt string `json:"date_retrieved"`
}
