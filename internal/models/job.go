package models

// Sentinel values substituted when a field cannot be resolved.
const (
	NotFound      = "Not Found"
	NotSpecified  = "Not Specified"
	DefaultRegion = "Israel"
)

// JobListing is one extracted posting. It is built once by ListingBuilder and
// passed around by value afterwards.
type JobListing struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Degree      string `json:"degree"`
	Experience  string `json:"experience"`
}

// ListingBuilder collects resolved fields for a listing. Fields never set fall
// back to their defaults in Build.
type ListingBuilder struct {
	url         string
	region      string
	title       *string
	company     *string
	location    *string
	description *string
	degree      *string
	experience  *string
}

// NewListingBuilder starts a listing for identifier. region is the location
// default; an empty region means DefaultRegion.
func NewListingBuilder(identifier, region string) *ListingBuilder {
	if region == "" {
		region = DefaultRegion
	}
	return &ListingBuilder{url: identifier, region: region}
}

func (b *ListingBuilder) Title(v string) *ListingBuilder {
	b.title = &v
	return b
}

func (b *ListingBuilder) Company(v string) *ListingBuilder {
	b.company = &v
	return b
}

func (b *ListingBuilder) Location(v string) *ListingBuilder {
	b.location = &v
	return b
}

func (b *ListingBuilder) Description(v string) *ListingBuilder {
	b.description = &v
	return b
}

func (b *ListingBuilder) Degree(v string) *ListingBuilder {
	b.degree = &v
	return b
}

func (b *ListingBuilder) Experience(v string) *ListingBuilder {
	b.experience = &v
	return b
}

// Build returns the finished listing.
func (b *ListingBuilder) Build() JobListing {
	return JobListing{
		URL:         b.url,
		Title:       valueOr(b.title, NotFound),
		Company:     valueOr(b.company, NotFound),
		Location:    valueOr(b.location, b.region),
		Description: valueOr(b.description, NotFound),
		Degree:      valueOr(b.degree, NotSpecified),
		Experience:  valueOr(b.experience, NotSpecified),
	}
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
