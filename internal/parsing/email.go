package parsing

import (
	"log"
	"time"

	"github.com/jonathan/jobmail-sync/internal/classify"
	"github.com/jonathan/jobmail-sync/internal/ingestion"
	"github.com/jonathan/jobmail-sync/internal/types"
)

// ParseEmail runs every extractor over one source item and assembles the results.
// Each extractor is isolated: a failure in one leaves its field empty and the rest still run.
func ParseEmail(item types.SourceItem) types.ParsedOpportunity {
	raw := item.Content
	normalized := ingestion.Normalize(raw)
	name := item.DisplayName

	p := types.ParsedOpportunity{
		EmailType:  types.EmailUnknown,
		Stage:      types.StageApplied,
		SourceFile: item.Path,
	}

	p.Subject = guard(name, "subject", func() string { return Subject(raw, normalized) })
	if p.Subject == "" {
		p.Subject = guard(name, "subject", func() string { return SubjectFromFileName(name) })
	}
	p.Sender = guard(name, "sender", func() string { return Sender(raw) })

	guard(name, "classify", func() string {
		p.EmailType, p.Stage = classify.Detect(normalized)
		return ""
	})

	p.Company = guard(name, "company", func() string { return Company(p.Subject, normalized, p.Sender) })
	p.Role = guard(name, "role", func() string { return Role(p.Subject, normalized) })
	p.Location = guard(name, "location", func() string { return Location(normalized) })
	p.JobLink = guard(name, "job link", func() string { return JobLink(raw) })
	if p.Company == "" {
		p.Company = guard(name, "company", func() string { return DomainName(p.JobLink) })
	}
	p.DescriptionText = guard(name, "description", func() string { return Description(normalized) })

	guard(name, "date", func() string {
		p.SourceDate = Date(raw, name, item.LastModified)
		return ""
	})
	if p.SourceDate != nil {
		t := p.SourceDate.UTC().Truncate(time.Second)
		p.SourceDate = &t
	}

	return p
}

// guard runs one extractor and turns a panic into an empty result.
func guard(item, extractor string, fn func() string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PARSE] %v", recovered(item, extractor, r))
			out = ""
		}
	}()
	return fn()
}
