package scoring_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"architect/internal/domain"
	"architect/internal/scoring"
)

func TestCanonicalWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, scoring.Canonical().Sum(), 1e-12)
}

func TestScoreDeterministic(t *testing.T) {
	in := scoring.SubScores{Alignment: 0.31, Feasibility: 0.77, Impact: 0.42, Novelty: 0.99}
	a := scoring.ScoreCanonical(in, "r")
	b := scoring.ScoreCanonical(in, "r")
	assert.Equal(t, a, b)
	assert.Equal(t, a.TotalScore, b.TotalScore)
}

func TestWeightCorrectness(t *testing.T) {
	got := scoring.ScoreCanonical(scoring.SubScores{Alignment: 1}, "")
	assert.Equal(t, 0.40, got.TotalScore)
	assert.Equal(t, domain.DecisionStop, got.Decision)

	cases := map[string]struct {
		in   scoring.SubScores
		want float64
	}{
		"feasibility": {scoring.SubScores{Feasibility: 1}, 0.20},
		"impact":      {scoring.SubScores{Impact: 1}, 0.30},
		"novelty":     {scoring.SubScores{Novelty: 1}, 0.10},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, scoring.ScoreCanonical(tc.in, "").TotalScore)
		})
	}
}

func TestThresholdBoundary(t *testing.T) {
	w := scoring.Weights{Alignment: 1}

	at := scoring.Score(scoring.SubScores{Alignment: 0.70}, w, scoring.Threshold, "")
	require.Equal(t, 0.70, at.TotalScore)
	assert.Equal(t, domain.DecisionStart, at.Decision)

	below := scoring.Score(scoring.SubScores{Alignment: 0.699999}, w, scoring.Threshold, "")
	assert.Equal(t, domain.DecisionStop, below.Decision)

	assert.Equal(t, domain.DecisionStart, scoring.Decide(0.70, 0.70))
	assert.Equal(t, domain.DecisionStop, scoring.Decide(0.699999, 0.70))
}

func TestScoreWorkedExample(t *testing.T) {
	got := scoring.ScoreCanonical(scoring.SubScores{Alignment: 0.9, Feasibility: 0.8, Impact: 0.6, Novelty: 0.5}, "fits the goal")
	assert.InDelta(t, 0.75, got.TotalScore, 1e-9)
	assert.Equal(t, domain.DecisionStart, got.Decision)
	assert.Equal(t, "fits the goal", got.Rationale)
	assert.Equal(t, 0.9, got.Alignment)
}

func TestScoreDoesNotClamp(t *testing.T) {
	got := scoring.ScoreCanonical(scoring.SubScores{Alignment: 2, Feasibility: -1, Impact: 0, Novelty: 0}, "")
	assert.InDelta(t, 0.6, got.TotalScore, 1e-9)
	assert.Equal(t, domain.DecisionStop, got.Decision)

	high := scoring.ScoreCanonical(scoring.SubScores{Alignment: 5}, "")
	assert.InDelta(t, 2.0, high.TotalScore, 1e-9)
	assert.Equal(t, domain.DecisionStart, high.Decision)
}

func TestCheckAgreesWithReportedDecision(t *testing.T) {
	reported := domain.CDFScore{Alignment: 0.9, Feasibility: 0.8, Impact: 0.6, Novelty: 0.5, TotalScore: 0.75, Decision: domain.DecisionStart}
	computed, err := scoring.Check(reported, scoring.Canonical(), scoring.Threshold)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionStart, computed.Decision)
	assert.Less(t, scoring.TotalDrift(reported, computed), 1e-9)
}

func TestCheckReportsMismatch(t *testing.T) {
	reported := domain.CDFScore{Alignment: 0.1, Feasibility: 0.1, Impact: 0.1, Novelty: 0.1, TotalScore: 0.9, Decision: domain.DecisionStart}
	computed, err := scoring.Check(reported, scoring.Canonical(), scoring.Threshold)
	require.Error(t, err)
	var mm scoring.Mismatch
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, domain.DecisionStop, computed.Decision)
	assert.Equal(t, domain.DecisionStart, mm.Reported.Decision)
}
