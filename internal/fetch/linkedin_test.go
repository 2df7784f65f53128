package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guestPostingHTML = `
<section class="top-card-layout">
  <h2 class="top-card-layout__title">Senior Backend Engineer</h2>
  <h4 class="top-card-layout__second-subline">
    <span class="topcard__flavor"><a class="topcard__org-name-link" href="#"> Acme Corp </a></span>
    <span class="topcard__flavor topcard__flavor--bullet">Berlin, Germany</span>
  </h4>
</section>
<div class="description__text">
  <div class="show-more-less-html__markup relative">
    <p><strong>About us</strong></p>
    <p>We build   payment rails.</p>
    <ul><li>Go</li><li>PostgreSQL</li></ul>
  </div>
  <button class="show-more-less-html__button">Show more</button>
</div>`

func TestParseGuestPosting(t *testing.T) {
	posting, err := ParseGuestPosting(guestPostingHTML)
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Engineer", posting.Title)
	assert.Equal(t, "Acme Corp", posting.Company)
	assert.Equal(t, "Berlin, Germany", posting.Location)
	assert.Equal(t, "About us\nWe build payment rails.\nGo\nPostgreSQL", posting.Description)
}

func TestParseGuestPosting_NoDescription(t *testing.T) {
	posting, err := ParseGuestPosting("<html><body><p>Sign in to view</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, posting.Description)
}

func TestGuestURL(t *testing.T) {
	assert.Equal(t, "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/4012345678", GuestURL("4012345678"))
}
