package capture

import "fmt"

// DecodeError reports that a capture source could not be opened or read:
// missing file, unrecognized format, or a truncated/corrupt stream. It is
// fatal to a run; the flow engine never sees partial input.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
