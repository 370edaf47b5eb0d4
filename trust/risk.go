package trust

import (
	"os"
	"path/filepath"
	"strings"
)

// RiskLevel represents how much of the filesystem a trust decision covers.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

func (l RiskLevel) String() string {
	switch l {
	case RiskNone:
		return "none"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "critical"
	}
}

// RiskReport contains the risk assessment for a trusted root.
type RiskReport struct {
	RiskFactors []RiskFactor
	Level       RiskLevel
}

// RiskFactor describes a single risk element of a trust decision.
type RiskFactor struct {
	Description string
	Rule        string
	Level       RiskLevel
}

// AnalyzeRoot evaluates the risk of trusting the root pattern.
func AnalyzeRoot(root string) RiskReport {
	report := RiskReport{Level: RiskNone}
	if root == "" {
		return report
	}

	addFactor := func(level RiskLevel, desc string) {
		report.RiskFactors = append(report.RiskFactors, RiskFactor{
			Level:       level,
			Description: desc,
			Rule:        root,
		})
		if level > report.Level {
			report.Level = level
		}
	}

	trimmed := strings.TrimSuffix(root, "/**")
	home := filepath.ToSlash(os.Getenv("HOME"))

	switch {
	case trimmed == "" || trimmed == "/" || trimmed == "**":
		addFactor(RiskCritical, "Trusts every location")
	case home != "" && trimmed == home:
		addFactor(RiskHigh, "Trusts the whole home directory")
	case strings.ContainsAny(trimmed, "*?[{"):
		addFactor(RiskMedium, "Pattern trusts multiple directory trees")
	default:
		addFactor(RiskLow, "Trusts one directory tree")
	}
	return report
}
