// Package scoring implements the decision gate: four weighted sub-scores
// combine into a total score, and the total is compared against a threshold.
package scoring

import (
	"fmt"
	"math"

	"architect/internal/domain"
)

// Threshold is the canonical go/no-go cut-off. A total equal to it is a START.
const Threshold = 0.70

// SubScores are the four dimensions an idea is rated on.
type SubScores struct {
	Alignment   float64 `json:"alignment" yaml:"alignment"`
	Feasibility float64 `json:"feasibility" yaml:"feasibility"`
	Impact      float64 `json:"impact" yaml:"impact"`
	Novelty     float64 `json:"novelty" yaml:"novelty"`
}

// Weights has the same shape as SubScores.
type Weights = SubScores

// Canonical returns the standard weights. They sum to 1.
func Canonical() Weights {
	return Weights{
		Alignment:   0.40,
		Feasibility: 0.20,
		Impact:      0.30,
		Novelty:     0.10,
	}
}

// Sum returns the total of the four values.
func (s SubScores) Sum() float64 {
	return s.Alignment + s.Feasibility + s.Impact + s.Novelty
}

// Total is the weighted linear combination of the sub-scores.
func Total(s SubScores, w Weights) float64 {
	return s.Alignment*w.Alignment +
		s.Feasibility*w.Feasibility +
		s.Impact*w.Impact +
		s.Novelty*w.Novelty
}

// Decide maps a total onto START/STOP. The comparison is inclusive.
func Decide(total, threshold float64) domain.Decision {
	if total >= threshold {
		return domain.DecisionStart
	}
	return domain.DecisionStop
}

// Score computes the CDF score. Out-of-range sub-scores are not clamped.
func Score(s SubScores, w Weights, threshold float64, rationale string) domain.CDFScore {
	total := Total(s, w)
	return domain.CDFScore{
		Alignment:   s.Alignment,
		Feasibility: s.Feasibility,
		Impact:      s.Impact,
		Novelty:     s.Novelty,
		TotalScore:  total,
		Decision:    Decide(total, threshold),
		Rationale:   rationale,
	}
}

// ScoreCanonical scores with the canonical weights and threshold.
func ScoreCanonical(s SubScores, rationale string) domain.CDFScore {
	return Score(s, Canonical(), Threshold, rationale)
}

// FromCDF extracts the sub-scores from an existing score.
func FromCDF(c domain.CDFScore) SubScores {
	return SubScores{
		Alignment:   c.Alignment,
		Feasibility: c.Feasibility,
		Impact:      c.Impact,
		Novelty:     c.Novelty,
	}
}

// Mismatch describes a disagreement between an externally supplied score and
// the local formula.
type Mismatch struct {
	Reported domain.CDFScore
	Computed domain.CDFScore
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("reported decision %s (total %.4f) differs from computed %s (total %.4f)",
		m.Reported.Decision, m.Reported.TotalScore, m.Computed.Decision, m.Computed.TotalScore)
}

// Check recomputes the score from reported's sub-scores and returns a
// Mismatch error when the decisions differ. Totals are only compared for
// information; the decision is the contract.
func Check(reported domain.CDFScore, w Weights, threshold float64) (domain.CDFScore, error) {
	computed := Score(FromCDF(reported), w, threshold, reported.Rationale)
	if computed.Decision != reported.Decision {
		return computed, Mismatch{Reported: reported, Computed: computed}
	}
	return computed, nil
}

// TotalDrift is the absolute difference between a reported and computed total.
func TotalDrift(reported, computed domain.CDFScore) float64 {
	return math.Abs(reported.TotalScore - computed.TotalScore)
}
