package flows

import "fmt"

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	OneTimeToken OneTimeTokenDeps
}

// wrap keeps sentinel matchable with errors.Is while preserving the cause text.
func wrap(sentinel, err error) error {
	if sentinel == nil {
		return err
	}
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
