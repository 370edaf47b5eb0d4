package validation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidManifest is returned by Result.Err for failed validations.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrIncompatibleEngine is returned when a manifest's engine constraint
	// does not admit the host version.
	ErrIncompatibleEngine = errors.New("incompatible engine")
)

// Result collects the outcome of a validation.
type Result struct {
	Valid  bool
	Errors []string
}

// Err returns nil for a valid result, otherwise an error wrapping
// ErrInvalidManifest that lists every violation.
func (r *Result) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(r.Errors, "; "))
}

// EngineError indicates the host version is outside the manifest's engine
// constraint.
type EngineError struct {
	Constraint  string
	HostVersion string
	Reasons     []string
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("incompatible engine: host %s does not satisfy %q", e.HostVersion, e.Constraint)
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	return msg
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, validation.ErrIncompatibleEngine)
func (e *EngineError) Is(target error) bool {
	return target == ErrIncompatibleEngine
}
