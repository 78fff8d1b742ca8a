package source

import "fmt"

// FormatError reports input that doesn't match the expected layout. Readers never
// recover from it; the data can't be trusted.
type FormatError struct {
	Path    string
	Element string
	Message string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Element, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Element, e.Message)
}
