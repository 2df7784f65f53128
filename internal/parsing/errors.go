package parsing

import "fmt"

// ExtractorError records an extractor that failed on one item. ParseEmail logs it and
// continues with an empty field.
type ExtractorError struct {
	Item      string
	Extractor string
	Cause     error
}

func (e *ExtractorError) Error() string {
	return fmt.Sprintf("%s extractor failed on %s: %v", e.Extractor, e.Item, e.Cause)
}

func (e *ExtractorError) Unwrap() error {
	return e.Cause
}

// recovered turns a recovered panic value into an ExtractorError.
func recovered(item, extractor string, r any) *ExtractorError {
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("panic: %v", r)
	}
	return &ExtractorError{Item: item, Extractor: extractor, Cause: cause}
}
