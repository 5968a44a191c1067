package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jimezsa/jobfinder/internal/models"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

// TimeLayout formats the Date Retrieved column.
const TimeLayout = "2006-01-02 15:04:05"

// Column names of the persisted CSV, in file order.
const (
	ColumnTitle      = "Job Title"
	ColumnCompany    = "Company"
	ColumnLocation   = "Location (IL)"
	ColumnDegree     = "Required Degree"
	ColumnExperience = "Required Experience (years)"
	ColumnURL        = "Job URL"
	ColumnRetrieved  = "Date Retrieved"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

// ParseFormat maps a flag value to a Format, defaulting to the table view.
func ParseFormat(value string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatCSV:
		return FormatCSV
	case FormatTSV:
		return FormatTSV
	case FormatJSON:
		return FormatJSON
	case FormatMarkdown:
		return FormatMarkdown
	default:
		return FormatTable
	}
}

// Records maps listings to output rows, all stamped with retrievedAt. The
// description is not persisted.
func Records(listings []models.JobListing, retrievedAt time.Time) []models.Record {
	stamp := retrievedAt.Format(TimeLayout)
	records := make([]models.Record, 0, len(listings))
	for _, listing := range listings {
		records = append(records, models.Record{
			Title:       listing.Title,
			Company:     listing.Company,
			Location:    listing.Location,
			Degree:      listing.Degree,
			Experience:  listing.Experience,
			URL:         listing.URL,
			RetrievedAt: stamp,
		})
	}
	return records
}

func WriteRecords(w io.Writer, records []models.Record, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatCSV:
		return WriteCSV(w, records, ',')
	case FormatTSV:
		return WriteCSV(w, records, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, records)
	default:
		return writeTable(w, records, opts)
	}
}

func writeJSON(w io.Writer, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes the header followed by one row per record.
func WriteCSV(w io.Writer, records []models.Record, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(Header()); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(Row(record)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, records []models.Record, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, record := range records {
		fmt.Fprintln(tw, strings.Join(tableRow(record, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, records []models.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, record := range records {
		urlLine := "  URL: -"
		if link := safe(record.URL); link != "" {
			urlLine = fmt.Sprintf("  URL: [Open listing](<%s>)", link)
		}
		lines := []string{
			fmt.Sprintf("- **%s** (%s)", safe(record.Title), safe(record.Company)),
			fmt.Sprintf("  Location: %s", safe(record.Location)),
			fmt.Sprintf("  Degree: %s", safe(record.Degree)),
			fmt.Sprintf("  Experience (years): %s", safe(record.Experience)),
			urlLine,
		}
		if record.RetrievedAt != "" {
			lines = append(lines, fmt.Sprintf("  Retrieved: %s", safe(record.RetrievedAt)))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func Header() []string {
	return []string{
		ColumnTitle,
		ColumnCompany,
		ColumnLocation,
		ColumnDegree,
		ColumnExperience,
		ColumnURL,
		ColumnRetrieved,
	}
}

func Row(record models.Record) []string {
	return []string{
		record.Title,
		record.Company,
		record.Location,
		record.Degree,
		record.Experience,
		record.URL,
		record.RetrievedAt,
	}
}

// ParseRow reads a record from row using header to locate columns, so files
// with reordered or extra columns still load. Missing columns stay empty.
func ParseRow(header, row []string) models.Record {
	get := func(name string) string {
		for i, column := range header {
			if strings.TrimSpace(strings.TrimPrefix(column, "\ufeff")) == name && i < len(row) {
				return row[i]
			}
		}
		return ""
	}
	return models.Record{
		Title:       get(ColumnTitle),
		Company:     get(ColumnCompany),
		Location:    get(ColumnLocation),
		Degree:      get(ColumnDegree),
		Experience:  get(ColumnExperience),
		URL:         get(ColumnURL),
		RetrievedAt: get(ColumnRetrieved),
	}
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func tableHeader() []string {
	return []string{
		"title",
		"company",
		"location",
		"degree",
		"years",
		"url",
	}
}

func tableRow(record models.Record, output *termenv.Output, opts WriteOptions) []string {
	const linkColor = "#87CEEB"

	link := safe(record.URL)
	displayURL := "-"
	if link != "" {
		displayURL = link
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(link)
		}
		if opts.ColorEnabled {
			displayURL = output.String(displayURL).Foreground(output.Color(linkColor)).String()
		}
		if opts.Hyperlinks {
			displayURL = hyperlink(link, displayURL)
		}
	}
	return []string{
		safe(record.Title),
		safe(record.Company),
		safe(record.Location),
		safe(record.Degree),
		safe(record.Experience),
		displayURL,
	}
}

func hyperlink(target string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + target + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

// shortURLLabel keeps host and path, which for postings is the numeric id.
func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
