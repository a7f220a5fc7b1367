package core

import (
	"errors"
	"strings"
)

// ErrMissingIdentifier is returned when the root bundle has no SAID.
var ErrMissingIdentifier = errors.New("bundle SAID is missing")

// ErrCyclicReference matches any *CyclicReferenceError via errors.Is.
var ErrCyclicReference = errors.New("cyclic bundle reference")

// ErrMaxDepthExceeded is returned when nesting exceeds the configured limit.
var ErrMaxDepthExceeded = errors.New("maximum reference depth exceeded")

// CyclicReferenceError reports a bundle that references itself, directly or
// through other bundles.
type CyclicReferenceError struct {
	// Attribute is the dotted path of the attribute that closed the cycle.
	Attribute string
	// Bundles lists the bundles on the cycle, outermost first, ending with
	// the bundle that was entered a second time.
	Bundles []string
}

func (e *CyclicReferenceError) Error() string {
	return "cyclic bundle reference at " + e.Attribute + ": " + strings.Join(e.Bundles, " -> ")
}

// Is reports whether target is ErrCyclicReference.
func (e *CyclicReferenceError) Is(target error) bool {
	return target == ErrCyclicReference
}
