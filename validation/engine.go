package validation

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

func parseConstraint(constraint string) (*semver.Constraints, error) {
	// Masterminds/semver has no "latest" keyword.
	if constraint == "latest" {
		constraint = ">= 0"
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("invalid engine constraint %q: %w", constraint, err)
	}
	return c, nil
}

// CheckEngine reports whether hostVersion satisfies constraint. An empty
// constraint admits every host.
func CheckEngine(constraint, hostVersion string) error {
	if constraint == "" {
		return nil
	}

	c, err := parseConstraint(constraint)
	if err != nil {
		return err
	}

	v, err := semver.NewVersion(hostVersion)
	if err != nil {
		return fmt.Errorf("invalid host version %q: %w", hostVersion, err)
	}

	if ok, errs := c.Validate(v); !ok {
		reasons := make([]string, len(errs))
		for i, e := range errs {
			reasons[i] = e.Error()
		}
		return &EngineError{Constraint: constraint, HostVersion: v.String(), Reasons: reasons}
	}
	return nil
}
