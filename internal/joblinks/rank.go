package joblinks

import (
	"net/url"
	"strings"
)

// NoiseFragments mark links that never point at a job: help pages, unsubscribe and
// preference pages, tracking redirects, feed and share links.
var NoiseFragments = []string{
	"/help/",
	"unsubscribe",
	"email-unsubscribe",
	"/mypreferences/",
	"/psettings/",
	"/share?",
	"/feed/",
	"trkemail=",
	"securityhelp",
}

// AggregatorHosts are hosts that never name the hiring company.
var AggregatorHosts = []string{"linkedin"}

// IsNoise reports whether a link contains one of the NoiseFragments.
func IsNoise(link string) bool {
	lower := strings.ToLower(link)
	for _, frag := range NoiseFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Rank orders links by source priority: LinkedIn job, company or search pages first,
// then Greenhouse, Lever and Workday, then anything else. Lower is better.
func Rank(link string) int {
	lower := strings.ToLower(link)
	switch {
	case strings.Contains(lower, "linkedin.com") && (strings.Contains(lower, "/jobs/view/") ||
		strings.Contains(lower, "/company/") || strings.Contains(lower, "/jobs/search/")):
		return 0
	case strings.Contains(lower, "greenhouse"):
		return 1
	case strings.Contains(lower, "lever.co"), strings.Contains(lower, "jobs.lever"):
		return 2
	case strings.Contains(lower, "workday"):
		return 3
	}
	return 4
}

// IsATS reports whether a link points at a known applicant tracking system.
func IsATS(link string) bool {
	r := Rank(link)
	return r >= 1 && r <= 3
}

// IsAggregatorHost reports whether host belongs to a job aggregator.
func IsAggregatorHost(host string) bool {
	host = strings.ToLower(host)
	for _, agg := range AggregatorHosts {
		if strings.Contains(host, agg) {
			return true
		}
	}
	return false
}

// Host returns the lowercase host of a link without a leading "www.", or "".
func Host(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
