package identity

import (
	dErrors "greenlight/pkg/domain-errors"
)

// Policy holds the name similarity thresholds. StrictThreshold applies when
// the birth dates agreed on at least StrictTier components, RelaxedThreshold
// otherwise.
type Policy struct {
	StrictThreshold  float64 `yaml:"strict_threshold"`
	RelaxedThreshold float64 `yaml:"relaxed_threshold"`
	StrictTier       Tier    `yaml:"strict_tier"`
}

// DefaultPolicy requires 80 with a fully matching birth date and 50 otherwise.
func DefaultPolicy() Policy {
	return Policy{StrictThreshold: 80, RelaxedThreshold: 50, StrictTier: TierFull}
}

// Threshold returns the similarity a name must reach given the birth date tier.
func (p Policy) Threshold(t Tier) float64 {
	if t >= p.StrictTier {
		return p.StrictThreshold
	}
	return p.RelaxedThreshold
}

func (p Policy) Validate() error {
	for _, v := range []float64{p.StrictThreshold, p.RelaxedThreshold} {
		if v < 0 || v > 100 {
			return dErrors.New(dErrors.CodeValidation, "identity thresholds must be within 0..100")
		}
	}
	if p.StrictTier < TierNone || p.StrictTier > TierFull {
		return dErrors.New(dErrors.CodeValidation, "identity strict tier must be within 0..3")
	}
	return nil
}
