package fetch

import "fmt"

// Error describes a failed fetch for a single input. Status holds the last
// HTTP status observed, or zero when no response was ever received.
type Error struct {
	Source string
	Input  string
	Status int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s %q: %v", e.Source, e.Input, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
