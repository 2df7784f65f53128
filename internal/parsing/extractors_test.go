package parsing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	assert.Equal(t, "Hybrid", Location("Hybrid - Tel Aviv, Israel"))
	assert.Equal(t, "Tel Aviv, Israel", Location("Based in Tel Aviv, Israel"))
	assert.Equal(t, "Israel", Location("Haifa, Israel"))
	assert.Equal(t, "", Location("Berlin"))
}

func TestJobLink(t *testing.T) {
	text := `Manage: https://www.linkedin.com/comm/psettings/email-unsubscribe?x=1
Apply: https://boards.greenhouse.io/acme/jobs/42.
See https://www.linkedin.com/comm/jobs/view/4213556789?trk=abc
Other https://acme.com/careers`
	assert.Equal(t, "https://www.linkedin.com/comm/jobs/view/4213556789?trk=abc", JobLink(text))

	onlyNoise := "https://www.linkedin.com/help/linkedin/answer/1234 https://x.com/unsubscribe"
	assert.Equal(t, "https://x.com/unsubscribe", JobLink(onlyNoise))

	assert.Equal(t, "", JobLink("no links"))
}

func TestURLs_DecodesEntities(t *testing.T) {
	urls := URLs(`<a href="https://jobs.lever.co/acme/1?a=1&amp;b=2">x</a>`)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://jobs.lever.co/acme/1?a=1&b=2", urls[0])
}

func TestDescription(t *testing.T) {
	assert.Equal(t, "About the role\nBuild things", Description("Hello\nAbout the role\nBuild things"))

	long := strings.Repeat("x", 3000)
	assert.Len(t, Description(long), SummaryLength)

	withMarker := "intro\nJob Description\n" + strings.Repeat("y", 6000)
	got := Description(withMarker)
	assert.True(t, strings.HasPrefix(got, "Job Description"))
	assert.Len(t, []rune(got), MaxDescriptionLength)

	assert.Equal(t, "", Description(""))
}

func TestDate(t *testing.T) {
	got := Date("Date: Tue, 04 Mar 2025 10:15:00 +0200\n", "x.txt", nil)
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2025, 3, 4, 8, 15, 0, 0, time.UTC)))

	fromName := Date("no header", "2025-03-04_10-15 - Subject.txt", nil)
	require.NotNil(t, fromName)
	assert.Equal(t, 10, fromName.Hour())

	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fallback := Date("Date: not a date", "x.txt", &mtime)
	require.NotNil(t, fallback)
	assert.True(t, fallback.Equal(mtime))

	assert.Nil(t, Date("", "x.txt", nil))
}
