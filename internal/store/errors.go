package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInitialized is returned when the cache tables do not exist yet.
	ErrNotInitialized = errors.New("version cache not initialized: run 'cincan-registry import' first")

	// ErrMalformedRow is returned when a row read back from the cache does not
	// have the expected shape.
	ErrMalformedRow = errors.New("malformed row")
)

// classify maps driver errors that callers need to distinguish onto
// sentinels, keeping the original error in the message.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %v", ErrNotInitialized, err)
	}
	return err
}
