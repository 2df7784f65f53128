// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/jobmail-sync/internal/db"
	"github.com/jonathan/jobmail-sync/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSyncSummary outputs the counts of a sync pass, its skipped items and the items
// that need a manual look.
func (p *Printer) PrintSyncSummary(s types.SyncSummary) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run:        %s\n", s.RunID))
	sb.WriteString(fmt.Sprintf("Scanned:    %d\n", s.Scanned))
	sb.WriteString(fmt.Sprintf("Created:    %d\n", s.Created))
	sb.WriteString(fmt.Sprintf("Updated:    %d\n", s.Updated))
	sb.WriteString(fmt.Sprintf("Unchanged:  %d\n", s.Unchanged))
	sb.WriteString(fmt.Sprintf("Removed:    %d\n", s.Removed))
	sb.WriteString(fmt.Sprintf("Enriched:   %d\n", s.Enriched))

	if len(s.Skipped) > 0 {
		sb.WriteString(fmt.Sprintf("\nSkipped (%d):\n", len(s.Skipped)))
		count := min(len(s.Skipped), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", shortPath(s.Skipped[i].Path)))
		}
		if len(s.Skipped) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(s.Skipped)-maxItemsToShow))
		}
	}

	if len(s.NeedsReview) > 0 {
		sb.WriteString(fmt.Sprintf("\nNeeds review (%d):\n", len(s.NeedsReview)))
		count := min(len(s.NeedsReview), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", shortPath(s.NeedsReview[i])))
		}
		if len(s.NeedsReview) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(s.NeedsReview)-maxItemsToShow))
		}
	}

	p.printBox("SYNC SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStatusCounts outputs the number of records per status in display order.
func (p *Printer) PrintStatusCounts(counts map[types.Status]int) {
	var sb strings.Builder
	total := 0
	for _, s := range types.StatusOrder {
		sb.WriteString(fmt.Sprintf("%-12s %5d\n", s.Title(), counts[s]))
		total += counts[s]
	}
	sb.WriteString(fmt.Sprintf("%-12s %5d", "Total", total))
	p.printBox("STATUS COUNTS", sb.String())
}

// PrintRecords outputs one line per record: company, role, date and key.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRecords(status types.Status, records []db.Record) {
	fmt.Fprintf(p.out, "%s (%d)\n", status.Title(), len(records))
	for _, r := range records {
		role := r.Role
		if role == "" {
			role = "-"
		}
		fmt.Fprintf(p.out, "  %-24s %-32s %-10s %s\n",
			truncate(r.Company, 24), truncate(role, 32), formatDate(r.EmailDate), r.RecordKey)
	}
}

// PrintRecord outputs the detail of one record followed by its description.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRecord(r *db.Record) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", r.Company))
	if r.Role != "" {
		sb.WriteString(fmt.Sprintf("Role:     %s\n", r.Role))
	}
	if r.Location != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n", r.Location))
	}
	sb.WriteString(fmt.Sprintf("Status:   %s", r.CurrentStatus.Title()))
	if r.ManualStatus != nil {
		sb.WriteString(" (manual)")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Auto:     %s\n", r.AutoStatus.Title()))
	sb.WriteString(fmt.Sprintf("Date:     %s\n", formatDate(r.EmailDate)))
	if r.Subject != "" {
		sb.WriteString(fmt.Sprintf("Subject:  %s\n", r.Subject))
	}
	sb.WriteString(fmt.Sprintf("File:     %s\n", r.FileName))
	sb.WriteString(fmt.Sprintf("Key:      %s\n", r.RecordKey))
	sb.WriteString(fmt.Sprintf("ID:       %s", r.ID))

	p.printBox(strings.ToUpper(truncate(r.Company, boxWidth-4)), sb.String())

	// links are printed whole so they can be copied
	if link := r.CanonicalLink(); link != "" {
		fmt.Fprintf(p.out, "Link: %s\n", link)
	}

	if desc := r.Description(); desc != "" {
		fmt.Fprintf(p.out, "\n%s\n", desc)
	}
}

// PrintParsed outputs the fields recovered from one source item.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintParsed(parsed types.ParsedOpportunity) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subject:  %s\n", orDash(parsed.Subject)))
	sb.WriteString(fmt.Sprintf("Company:  %s\n", orDash(parsed.Company)))
	sb.WriteString(fmt.Sprintf("Role:     %s\n", orDash(parsed.Role)))
	sb.WriteString(fmt.Sprintf("Location: %s\n", orDash(parsed.Location)))
	sb.WriteString(fmt.Sprintf("Type:     %s (%s)\n", parsed.EmailType, parsed.Stage))
	sb.WriteString(fmt.Sprintf("Date:     %s", formatDate(parsed.SourceDate)))
	p.printBox(shortPath(parsed.SourceFile), sb.String())
	fmt.Fprintf(p.out, "Link: %s\n", orDash(parsed.JobLink))
}

// PrintTranslateResult outputs the counts of a translate-existing pass.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTranslateResult(checked, updated, failed int) {
	fmt.Fprintf(p.out, "Checked: %d, translated: %d, failed: %d\n", checked, updated, failed)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortPath keeps the file name and its parent directory.
func shortPath(path string) string {
	parts := strings.Split(strings.ReplaceAll(path, "\\", "/"), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
