// Package joblinks canonicalizes job-board links and extracts the supported LinkedIn
// links of an email so they can serve as stable identity signals.
package joblinks

import (
	"net/url"
	"regexp"
	"strings"
)

const linkedInBase = "https://www.linkedin.com/"

var (
	jobViewPattern        = regexp.MustCompile(`/jobs/view/(\d+)`)
	currentJobIDPattern   = regexp.MustCompile(`(?i)currentJobId=(\d+)`)
	encodedJobViewPattern = regexp.MustCompile(`(?i)jobs%2Fview%2F(\d+)`)

	companyJobsPathPattern    = regexp.MustCompile(`(?i)^/(comm/)?company/([^/]+)/jobs/?$`)
	companyProfilePathPattern = regexp.MustCompile(`(?i)^/(comm/)?company/([^/]+)/?$`)

	supportedCompanyJobs    = regexp.MustCompile(`/(?:comm/)?company/[^/]+/jobs/?(?:$|\?)`)
	supportedCompanyProfile = regexp.MustCompile(`/(?:comm/)?company/[^/]+/?(?:$|\?)`)
)

// JobID returns the numeric job-posting identifier carried by a link, or "".
// It recognizes /jobs/view/<id>, /comm/jobs/view/<id>, currentJobId=<id> and the
// URL-encoded jobs%2Fview%2F<id> form.
func JobID(link string) string {
	if m := jobViewPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	if m := currentJobIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	if m := encodedJobViewPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// Canonicalize returns the stable form of a job-board link:
//   - LinkedIn company jobs and company profile pages become
//     https://www.linkedin.com/{comm/}company/<slug>/jobs without query parameters;
//   - links carrying a job-posting id become https://www.linkedin.com/{comm/}jobs/view/<id>/;
//   - everything else is returned unchanged.
func Canonicalize(link string) string {
	link = strings.TrimSpace(link)
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		host := strings.ToLower(u.Host)
		if strings.Contains(host, "linkedin.com") {
			if m := companyJobsPathPattern.FindStringSubmatch(u.Path); m != nil {
				return companyJobsURL(m[1] != "", m[2])
			}
			if m := companyProfilePathPattern.FindStringSubmatch(u.Path); m != nil {
				return companyJobsURL(m[1] != "", m[2])
			}
		}
	}

	id := JobID(link)
	if id == "" {
		return link
	}
	if strings.Contains(link, "/comm/jobs/view/") {
		return linkedInBase + "comm/jobs/view/" + id + "/"
	}
	return linkedInBase + "jobs/view/" + id + "/"
}

// IsSupported reports whether a (canonical) link points at a job posting, a company's
// jobs page, a company profile or a job search.
func IsSupported(link string) bool {
	if link == "" {
		return false
	}
	lower := strings.ToLower(link)
	switch {
	case strings.Contains(lower, "/jobs/view/"):
		return true
	case supportedCompanyJobs.MatchString(lower):
		return true
	case supportedCompanyProfile.MatchString(lower):
		return true
	case strings.Contains(lower, "/jobs/search/"):
		return true
	}
	return false
}

// CompanySlug returns the company slug of a LinkedIn company jobs link, or "".
func CompanySlug(link string) string {
	if m := companyJobsLinkPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

var companyJobsLinkPattern = regexp.MustCompile(`(?i)/(?:comm/)?company/([^/?]+)/jobs/?(?:$|\?)`)

func companyJobsURL(comm bool, slug string) string {
	prefix := ""
	if comm {
		prefix = "comm/"
	}
	return linkedInBase + prefix + "company/" + slug + "/jobs"
}
