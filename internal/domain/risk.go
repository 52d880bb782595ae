package domain

import (
	"fmt"
	"strings"
)

// RiskLevel is the ordered risk enumeration LOW < MODERATE < HIGH < CRITICAL.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskCritical
)

var riskNames = [...]string{"LOW", "MODERATE", "HIGH", "CRITICAL"}

func (r RiskLevel) String() string {
	if r < RiskLow || r > RiskCritical {
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
	return riskNames[r]
}

// ParseRiskLevel parses a case-insensitive risk level name.
func ParseRiskLevel(s string) (RiskLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range riskNames {
		if n == name {
			return RiskLevel(i), nil
		}
	}
	return RiskLow, fmt.Errorf("unknown risk level %q", s)
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	if r < RiskLow || r > RiskCritical {
		return nil, fmt.Errorf("invalid risk level %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(text []byte) error {
	level, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*r = level
	return nil
}
