package ingestion

import "fmt"

// SourceError reports a source item that could not be read or decoded. Dir marks a
// folder that could not be listed, which stands for every item below it.
type SourceError struct {
	Path    string
	Message string
	Cause   error
	Dir     bool
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}
