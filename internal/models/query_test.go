package models

import (
	"errors"
	"strings"
	"testing"
)

func TestJobPosting_Validate(t *testing.T) {
	valid := JobPosting{ID: "1", Title: "Data Engineer", Company: "Acme", Link: "https://example.com/1"}
	tests := []struct {
		name      string
		mutate    func(p *JobPosting)
		wantField string
	}{
		{"valid", func(p *JobPosting) {}, ""},
		{"missing id", func(p *JobPosting) { p.ID = "" }, "ID"},
		{"blank title", func(p *JobPosting) { p.Title = "   " }, "Title"},
		{"missing company", func(p *JobPosting) { p.Company = "" }, "Company"},
		{"missing link", func(p *JobPosting) { p.Link = "" }, "Link"},
		{"optional fields empty", func(p *JobPosting) { p.Date = ""; p.Description = ""; p.Location = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestRawRecord_ToPosting(t *testing.T) {
	r := RawRecord{JobID: " 42 ", Title: "Engineer", Company: "Acme", Link: "l", Location: "Berlin"}
	p := r.ToPosting()
	if p.ID != "42" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.Location != "Berlin" {
		t.Errorf("Location should fall back to search location, got %q", p.Location)
	}
	r.Place = "Munich, Bavaria"
	if got := r.ToPosting().Location; got != "Munich, Bavaria" {
		t.Errorf("Location = %q", got)
	}
}

func TestPostingRowRoundTrip(t *testing.T) {
	p := &JobPosting{ID: "1", Location: "Berlin", Title: "T", Company: "C", Date: "2024-01-01", Link: "L", Description: "D"}
	got := PostingFromRow(p.Row())
	if *got != *p {
		t.Errorf("got %+v, want %+v", got, p)
	}
	short := PostingFromRow([]string{"9", "Remote"})
	if short.ID != "9" || short.Location != "Remote" || short.Title != "" {
		t.Errorf("short row: %+v", short)
	}
}

func TestQueryResult_Render(t *testing.T) {
	r := &QueryResult{Answer: "Try posting 1. ", Sources: []*Source{{JobID: "1", Title: "Data Engineer", Link: "https://x/1"}}}
	out := r.Render()
	if !strings.HasPrefix(out, "Try posting 1.\n\nSources:\n") {
		t.Errorf("unexpected render: %q", out)
	}
	if !strings.Contains(out, "Job ID: 1 | Title: Data Engineer | Link: https://x/1") {
		t.Errorf("missing source line: %q", out)
	}
	if (&QueryResult{Answer: "NA"}).Render() != "NA" {
		t.Error("no sources should render answer only")
	}
}
