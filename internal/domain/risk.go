package domain

import (
	"fmt"
	"strings"
)

// RiskTier is an ordered heat-risk category. The zero value is RiskLow, and
// tiers compare with the usual integer operators: RiskLow < RiskModerate < RiskHigh < RiskExtreme.
type RiskTier int

const (
	RiskLow RiskTier = iota
	RiskModerate
	RiskHigh
	RiskExtreme
)

// Classification thresholds in degrees Celsius. A value equal to a threshold
// belongs to the higher tier.
const (
	ModerateThresholdC = 32.0
	HighThresholdC     = 36.0
	ExtremeThresholdC  = 40.0
)

var riskTierNames = [...]string{"Low", "Moderate", "High", "Extreme"}

// Classify maps a temperature to its risk tier. It is total: NaN and -Inf
// fall through every comparison and classify as RiskLow.
func Classify(tempC float64) RiskTier {
	switch {
	case tempC >= ExtremeThresholdC:
		return RiskExtreme
	case tempC >= HighThresholdC:
		return RiskHigh
	case tempC >= ModerateThresholdC:
		return RiskModerate
	default:
		return RiskLow
	}
}

func (t RiskTier) String() string {
	if t < RiskLow || t > RiskExtreme {
		return fmt.Sprintf("RiskTier(%d)", int(t))
	}
	return riskTierNames[t]
}

// MarshalText encodes the tier by name.
func (t RiskTier) MarshalText() ([]byte, error) {
	if t < RiskLow || t > RiskExtreme {
		return nil, fmt.Errorf("marshal risk tier: unknown value %d", int(t))
	}
	return []byte(riskTierNames[t]), nil
}

// UnmarshalText accepts tier names case-insensitively.
func (t *RiskTier) UnmarshalText(b []byte) error {
	name := strings.TrimSpace(string(b))
	for i, n := range riskTierNames {
		if strings.EqualFold(n, name) {
			*t = RiskTier(i)
			return nil
		}
	}
	return fmt.Errorf("unmarshal risk tier: unknown name %q", name)
}
