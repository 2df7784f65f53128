// Package classify maps normalized email text to an email type, a pipeline stage and
// the automatic record status used by the sync engine.
package classify

import (
	"strings"

	"github.com/jonathan/jobmail-sync/internal/types"
)

// rule is one row of an ordered decision table: the first rule whose markers match wins.
type rule struct {
	emailType types.EmailType
	markers   []string
}

var emailTypeRules = []rule{
	{types.EmailApplied, []string{
		"your application was sent",
		"application submitted",
	}},
	{types.EmailAutoReply, []string{
		"we received your application",
		"thank you for applying",
	}},
	{types.EmailInterview, []string{
		"interview",
		"schedule a call",
		"invite you to",
	}},
	{types.EmailReject, []string{
		"we regret",
		"not moving forward",
		"unfortunately",
	}},
}

var stageByType = map[types.EmailType]types.Stage{
	types.EmailApplied:   types.StageApplied,
	types.EmailAutoReply: types.StageApplied,
	types.EmailInterview: types.StageInterview,
	types.EmailReject:    types.StageRejected,
	types.EmailUnknown:   types.StageApplied,
}

// EmailType returns the first email type whose markers occur in the text, or EmailUnknown.
func EmailType(normalized string) types.EmailType {
	lowered := strings.ToLower(normalized)
	for _, r := range emailTypeRules {
		if containsAny(lowered, r.markers) {
			return r.emailType
		}
	}
	return types.EmailUnknown
}

// Stage maps an email type to its pipeline stage. Unknown types map to Applied.
func Stage(t types.EmailType) types.Stage {
	if s, ok := stageByType[t]; ok {
		return s
	}
	return types.StageApplied
}

// Detect returns both the email type and its stage.
func Detect(normalized string) (types.EmailType, types.Stage) {
	t := EmailType(normalized)
	return t, Stage(t)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
