package classify

import (
	"regexp"
	"strings"

	"github.com/jonathan/jobmail-sync/internal/types"
)

var (
	noiseMarkers = []string{
		"оповещение о вакансиях linkedin",
		"новая вакансия, соответствующая вашим предпочтениям",
		"new jobs similar to",
		"your full linkedin data archive is ready",
		" and more",
	}

	rejectionMarkers = []string{
		"application_rejected",
		"move forward with other candidates",
		"decided to move forward with other candidates",
		"решили двигаться дальше",
		"отклон",
		"отказ",
	}

	interviewPatterns = []*regexp.Regexp{
		regexp.MustCompile(`interview invitation`),
		regexp.MustCompile(`invited to (an )?interview`),
		regexp.MustCompile(`invite you to (an )?interview`),
		regexp.MustCompile(`schedule (an )?interview`),
		regexp.MustCompile(`приглаш[а-я]* на собесед`),
		regexp.MustCompile(`приглашаем на собесед`),
		regexp.MustCompile(`приглашение на собесед`),
		regexp.MustCompile(`назначить собесед`),
	}

	applicationMarkers = []string{
		"ваша заявка была отправлена в компанию",
		"ваша заявка на вакансию",
		"ваша заявка была просмотрена в компании",
		"thank you for applying",
		"thanks for applying",
		"wow - thanks for applying",
		"we got it: thanks for applying",
		"your application at",
		"your application was viewed by",
		"application to ",
		"application has been received",
		"your application was sent to",
		"we now know that you’d like to join our team",
		"we now know that you'd like to join our team",
	}

	digestMarkers = []string{
		"linkedin job alerts",
		"оповещения о вакансиях linkedin",
		"your job alert for",
		"ваше оповещение о вакансиях",
		"new jobs similar to",
		"jobs similar to",
		"hired roles near you",
		"apply now to",
	}

	nonJobNoiseMarkers = []string{
		"your full linkedin data archive is ready",
		"share their thoughts on linkedin",
	}

	reviewSuspectMarkers = []string{
		"apply",
		"applying",
		"application",
		"заявк",
		"resume",
		"cv",
		"job",
		"vacancy",
		"position",
	}
)

// Signals are the application-level signals found in an email.
type Signals struct {
	Application bool
	Rejection   bool
	Interview   bool
}

// DetectSignals scans text for application, rejection and interview signals. Job-alert
// digests and data-export notices short-circuit to no signal at all.
func DetectSignals(text string) Signals {
	lowered := strings.ToLower(text)
	if containsAny(lowered, noiseMarkers) {
		return Signals{}
	}

	var s Signals
	s.Rejection = containsAny(lowered, rejectionMarkers)
	for _, p := range interviewPatterns {
		if p.MatchString(lowered) {
			s.Interview = true
			break
		}
	}
	s.Application = containsAny(lowered, applicationMarkers)
	return s
}

// InferStatus derives the automatic record status of an email. Rejection beats interview,
// which beats application; an email with no signal is incoming when it carries job links
// and needs manual sorting otherwise.
func InferStatus(text string, hasLinks bool) types.Status {
	s := DetectSignals(text)
	switch {
	case s.Rejection:
		return types.StatusRejected
	case s.Interview:
		return types.StatusInterview
	case s.Application:
		return types.StatusApplied
	case hasLinks:
		return types.StatusIncoming
	}
	return types.StatusManualSort
}

// IsDigest reports whether text is a job-alert or recommendation digest.
func IsDigest(text string) bool {
	return containsAny(strings.ToLower(text), digestMarkers)
}

// IsNonJobNoise reports whether text is a LinkedIn notice unrelated to jobs.
func IsNonJobNoise(text string) bool {
	return containsAny(strings.ToLower(text), nonJobNoiseMarkers)
}

// NeedsReview reports whether an item that could not be classified still looks like an
// application and should be checked by hand.
func NeedsReview(text string, status types.Status) bool {
	if status != types.StatusManualSort {
		return false
	}
	if IsDigest(text) || IsNonJobNoise(text) {
		return false
	}
	return containsAny(strings.ToLower(text), reviewSuspectMarkers)
}

// StatusPriority orders automatic statuses for processing: weaker signals first so that
// stronger ones are written last.
func StatusPriority(s types.Status) int {
	switch s {
	case types.StatusIncoming:
		return 0
	case types.StatusApplied:
		return 1
	case types.StatusRejected:
		return 2
	case types.StatusInterview:
		return 3
	case types.StatusManualSort:
		return 4
	}
	return 5
}
