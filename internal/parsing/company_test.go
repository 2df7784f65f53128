package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompany(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		normalized string
		sender     string
		want       string
	}{
		{
			name:    "sent to in subject",
			subject: "Your application was sent to Acme Corp",
			want:    "Acme Corp",
		},
		{
			name:       "russian company phrase",
			normalized: "Ваша заявка была отправлена в компанию Яндекс",
			want:       "Яндекс",
		},
		{
			name:       "labelled line",
			normalized: "Company:\nGlobex\nThanks",
			want:       "Globex",
		},
		{
			name:       "thank you for applying to",
			normalized: "thank you for applying to initech!",
			want:       "initech",
		},
		{
			name:       "sender display name",
			normalized: "hello there",
			sender:     "Acme Talent <talent@acme-corp.io>",
			want:       "Acme Talent",
		},
		{
			name:       "sender domain",
			normalized: "hello there",
			sender:     "noreply@initech-labs.com",
			want:       "Initech Labs",
		},
		{
			name:       "linkedin sender rejected",
			normalized: "hello there",
			sender:     "LinkedIn <jobs-noreply@linkedin.com>",
			want:       "",
		},
		{
			name:       "nothing recognizable",
			normalized: "hello world\nnothing here",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Company(tt.subject, tt.normalized, tt.sender))
		})
	}
}

func TestCleanupCompany(t *testing.T) {
	assert.Equal(t, "Acme Corp", cleanupCompany("  Acme   Corp. "))
	assert.Equal(t, "", cleanupCompany("Jan 12"))
	assert.Equal(t, "", cleanupCompany("Acme 2024 1"))
	assert.Equal(t, "", cleanupCompany("LinkedIn"))
	assert.Equal(t, "", cleanupCompany("A"))
}

func TestDomainName(t *testing.T) {
	assert.Equal(t, "Acme", DomainName("https://careers.acme.com/jobs/1"))
	assert.Equal(t, "Big Co", DomainName("https://www.big-co.io/x"))
	assert.Equal(t, "", DomainName("https://www.linkedin.com/jobs/view/1/"))
	assert.Equal(t, "", DomainName(""))
}

func TestNormalizeCompany(t *testing.T) {
	assert.Equal(t, "Acme Ltd", NormalizeCompany("«Acme Ltd»."))
}
