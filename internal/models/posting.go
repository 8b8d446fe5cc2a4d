// Package models defines the job posting, scrape record, parsed document and query result types.
package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CSVHeader is the column order of the corpus snapshot file.
var CSVHeader = []string{"Job_ID", "Location", "Title", "Company", "Date", "Link", "Description"}

// JobPosting is one ingested posting. Immutable once appended to the corpus.
type JobPosting struct {
	ID          string `json:"job_id" validate:"required"`
	Location    string `json:"location"`
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Date        string `json:"date"`
	Link        string `json:"link" validate:"required"`
	Description string `json:"description"`
}

// RawRecord is what a scraper emits before validation.
type RawRecord struct {
	JobID       string   `json:"job_id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	CompanyLink string   `json:"company_link,omitempty"`
	Place       string   `json:"place"`
	Date        string   `json:"date"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Insights    []string `json:"insights,omitempty"`
	// Query and Location are the search inputs that produced the record.
	Query    string `json:"query,omitempty"`
	Location string `json:"location,omitempty"`
}

// BatchMetrics is reported by a scraper once per page.
type BatchMetrics struct {
	Query          string `json:"query"`
	Location       string `json:"location"`
	Processed      int    `json:"processed"`
	Failed         int    `json:"failed"`
	MissedRecords  int    `json:"missed_records"`
	SkippedRecords int    `json:"skipped_records"`
}

// ValidationError reports a missing or invalid posting field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

var validate = validator.New()

// ToPosting maps a raw record into a posting. The location of the search is
// used when the card carries no place of its own.
func (r RawRecord) ToPosting() *JobPosting {
	loc := strings.TrimSpace(r.Place)
	if loc == "" {
		loc = strings.TrimSpace(r.Location)
	}
	return &JobPosting{
		ID:          strings.TrimSpace(r.JobID),
		Location:    loc,
		Title:       strings.TrimSpace(r.Title),
		Company:     strings.TrimSpace(r.Company),
		Date:        strings.TrimSpace(r.Date),
		Link:        strings.TrimSpace(r.Link),
		Description: strings.TrimSpace(r.Description),
	}
}

// Validate checks that ID, Title, Company and Link are non-empty.
// Whitespace-only values count as empty.
func (p *JobPosting) Validate() error {
	if p == nil {
		return &ValidationError{Field: "posting", Message: "is nil"}
	}
	trimmed := *p
	trimmed.ID = strings.TrimSpace(p.ID)
	trimmed.Title = strings.TrimSpace(p.Title)
	trimmed.Company = strings.TrimSpace(p.Company)
	trimmed.Link = strings.TrimSpace(p.Link)
	if err := validate.Struct(&trimmed); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Field(), Message: "is required"}
		}
		return &ValidationError{Field: "posting", Message: err.Error()}
	}
	return nil
}

// Row returns the posting as a corpus CSV row, in CSVHeader order.
func (p *JobPosting) Row() []string {
	return []string{p.ID, p.Location, p.Title, p.Company, p.Date, p.Link, p.Description}
}

// PostingFromRow is the inverse of Row. Short rows leave trailing fields empty.
func PostingFromRow(row []string) *JobPosting {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return &JobPosting{
		ID:          get(0),
		Location:    get(1),
		Title:       get(2),
		Company:     get(3),
		Date:        get(4),
		Link:        get(5),
		Description: get(6),
	}
}
