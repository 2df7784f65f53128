package types

import "time"

// SourceItem is one readable item of a source collection (an exported email file).
type SourceItem struct {
	Content      string     `json:"-"`
	DisplayName  string     `json:"display_name"` // file name
	Path         string     `json:"path"`         // stable handle of the item
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// ParsedOpportunity holds everything recovered from a single source item.
// Optional fields are empty strings / nil when an extractor found nothing.
type ParsedOpportunity struct {
	Subject         string     `json:"subject,omitempty"`
	Sender          string     `json:"sender,omitempty"`
	Company         string     `json:"company,omitempty"`
	Role            string     `json:"role,omitempty"`
	Location        string     `json:"location,omitempty"`
	JobLink         string     `json:"job_link,omitempty"`
	DescriptionText string     `json:"description_text,omitempty"`
	EmailType       EmailType  `json:"email_type"`
	Stage           Stage      `json:"stage"`
	SourceDate      *time.Time `json:"source_date,omitempty"`
	SourceFile      string     `json:"source_file"`
}
