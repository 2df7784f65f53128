// Package types provides type definitions for structured data shared by the extraction, classification and sync packages.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"strings"
)

// EmailType is the category a single email falls into.
type EmailType string

const (
	EmailApplied   EmailType = "applied"
	EmailAutoReply EmailType = "auto_reply"
	EmailInterview EmailType = "interview"
	EmailReject    EmailType = "reject"
	EmailUnknown   EmailType = "unknown"
)

// Stage is the coarse hiring-pipeline stage derived from an EmailType.
type Stage string

const (
	StageApplied   Stage = "Applied"
	StageInterview Stage = "Interview"
	StageRejected  Stage = "Rejected"
)

// Status is the persisted status of an opportunity record.
type Status string

const (
	StatusIncoming   Status = "incoming"
	StatusApplied    Status = "applied"
	StatusInterview  Status = "interview"
	StatusRejected   Status = "rejected"
	StatusManualSort Status = "manual_sort"
	StatusArchive    Status = "archive"
)

// ErrInvalidStatus is returned when a status string is not one of the known statuses.
var ErrInvalidStatus = errors.New("invalid status")

// StatusOrder is the display order of statuses.
var StatusOrder = []Status{
	StatusIncoming,
	StatusApplied,
	StatusRejected,
	StatusInterview,
	StatusManualSort,
	StatusArchive,
}

// statusTitles are the labels shown in summaries.
var statusTitles = map[Status]string{
	StatusIncoming:   "Incoming",
	StatusApplied:    "Applied",
	StatusInterview:  "Interview",
	StatusRejected:   "Rejected",
	StatusManualSort: "Manual Sort",
	StatusArchive:    "Archive",
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusTitles[s]
	return ok
}

// Title returns the human-readable label for the status.
func (s Status) Title() string {
	if t, ok := statusTitles[s]; ok {
		return t
	}
	return string(s)
}

// IsDefault reports whether s is the default status that never needs pinning.
func (s Status) IsDefault() bool {
	return s == "" || s == StatusIncoming
}

// ParseStatus parses a status name, case-insensitively. "none" and "" parse to the empty status.
func ParseStatus(value string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "-", "_")
	if v == "" || v == "none" {
		return "", nil
	}
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return s, nil
}

// StatusPtr returns a pointer to s, or nil for the empty status.
func StatusPtr(s Status) *Status {
	if s == "" {
		return nil
	}
	return &s
}
