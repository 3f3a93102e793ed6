// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/evidence"
)

func TestCalculate_EmptyEvidence(t *testing.T) {
	e := NewEngine()

	score := e.Calculate(context.Background(), nil)
	assert.Equal(t, 0, score.Value)
	assert.Equal(t, LevelUncertain, score.Level)
	assert.Equal(t, []string{"No evidence provided"}, score.NegativeFactors)
	assert.Empty(t, score.PositiveFactors)
	assert.True(t, Validate(score))
}

func TestCalculate_SingleExplicit(t *testing.T) {
	e := NewEngine()
	items := []evidence.Evidence{
		evidence.New(evidence.TypeDependsOnDirective, "depends_on entry", 100),
	}

	score := e.Calculate(context.Background(), items)

	// Full-weight base plus the explicit bonus saturates the scale.
	assert.Equal(t, 100, score.Value)
	assert.Equal(t, LevelCertain, score.Level)
	assert.InDelta(t, 100.0, score.Breakdown.BaseScore, 0.001)
	assert.InDelta(t, 1.0, score.Breakdown.EvidenceMultiplier, 0.001)
	assert.Equal(t, e.Config().ExplicitBonus, score.Breakdown.ExplicitBonus)
	assert.Zero(t, score.Breakdown.HeuristicPenalty)
	assert.Contains(t, score.PositiveFactors, "explicit relationship evidence present")
}

func TestCalculate_HeuristicOnlyPenalized(t *testing.T) {
	e := NewEngine()
	heuristic := []evidence.Evidence{
		evidence.New(evidence.TypeNamingConvention, "name prefix match", 50),
	}
	explicit := []evidence.Evidence{
		evidence.New(evidence.TypeDependsOnDirective, "depends_on entry", 50),
	}

	hs := e.Calculate(context.Background(), heuristic)
	es := e.Calculate(context.Background(), explicit)

	// Same raw detector confidence, but explicit evidence must always
	// outrank a heuristic-only set.
	assert.Greater(t, es.Value, hs.Value)
	assert.Equal(t, e.Config().HeuristicPenalty, hs.Breakdown.HeuristicPenalty)
	assert.Contains(t, hs.NegativeFactors, "all evidence is heuristic")

	// heuristic: 50*0.5 - 15 = 10
	assert.Equal(t, 10, hs.Value)
	assert.Equal(t, LevelUncertain, hs.Level)
}

func TestCalculate_CorroborationMultiplier(t *testing.T) {
	e := NewEngine()

	three := []evidence.Evidence{
		evidence.New(evidence.TypeInterpolation, "e1", 70),
		evidence.New(evidence.TypeInterpolation, "e2", 70),
		evidence.New(evidence.TypeInterpolation, "e3", 70),
	}
	score := e.Calculate(context.Background(), three)
	assert.InDelta(t, 1+0.25*math.Log(3), score.Breakdown.EvidenceMultiplier, 0.001)

	// The multiplier saturates for large evidence sets.
	many := make([]evidence.Evidence, 40)
	for i := range many {
		many[i] = evidence.New(evidence.TypeInterpolation, "e", 70)
	}
	capped := e.Calculate(context.Background(), many)
	assert.InDelta(t, 1.75, capped.Breakdown.EvidenceMultiplier, 0.001)
}

func TestCalculate_DiminishingReturnsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableDiminishingReturns = false
	e := NewEngine(WithConfig(cfg))

	items := []evidence.Evidence{
		evidence.New(evidence.TypeInterpolation, "e1", 60),
		evidence.New(evidence.TypeInterpolation, "e2", 60),
	}
	score := e.Calculate(context.Background(), items)
	assert.InDelta(t, 1.0, score.Breakdown.EvidenceMultiplier, 0.001)
}

func TestCalculate_PatternBonus(t *testing.T) {
	e := NewEngine()
	items := []evidence.Evidence{
		evidence.New(evidence.TypeDependsOnDirective, "explicit", 90), // explicit
		evidence.New(evidence.TypeInterpolation, "syntax", 80),        // syntax
		evidence.New(evidence.TypeModuleSource, "semantic", 70),       // semantic
	}

	score := e.Calculate(context.Background(), items)
	assert.Equal(t, e.Config().PatternBonus, score.Breakdown.PatternBonus)
	assert.Contains(t, score.PositiveFactors, "evidence spans 3 categories")
}

func TestCalculate_CustomRuleContribution(t *testing.T) {
	e := NewEngine()
	items := []evidence.Evidence{
		evidence.New(evidence.TypeInterpolation, "attr interpolation", 60),
	}
	penalty := Rule{
		ID:        "suspicious",
		Name:      "suspicious pattern",
		BaseScore: -20,
		Conditions: []Condition{
			{Field: "confidence", Operator: OpLT, Value: 70},
		},
	}

	with := e.Calculate(context.Background(), items, penalty)
	without := e.Calculate(context.Background(), items)

	assert.Equal(t, without.Value-20, with.Value)
	assert.InDelta(t, -20, with.Breakdown.RuleContribution, 0.001)
	assert.Contains(t, with.NegativeFactors, `rule "suspicious pattern" matched 1 item(s)`)
}

func TestCalculate_ValueAlwaysBounded(t *testing.T) {
	e := NewEngine()

	high := make([]evidence.Evidence, 10)
	for i := range high {
		high[i] = evidence.New(evidence.TypeDependsOnDirective, "e", 100)
	}
	score := e.Calculate(context.Background(), high)
	assert.Equal(t, 100, score.Value)
	assert.True(t, Validate(score))

	low := []evidence.Evidence{
		evidence.New(evidence.TypeNamingConvention, "weak", 1),
	}
	score = e.Calculate(context.Background(), low)
	assert.Equal(t, 0, score.Value)
	assert.True(t, Validate(score))
}

func TestLevelForValue(t *testing.T) {
	tests := []struct {
		value int
		want  Level
	}{
		{100, LevelCertain},
		{95, LevelCertain},
		{94, LevelHigh},
		{80, LevelHigh},
		{79, LevelMedium},
		{60, LevelMedium},
		{59, LevelLow},
		{40, LevelLow},
		{39, LevelUncertain},
		{0, LevelUncertain},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForValue(tt.value), "value %d", tt.value)
	}
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(Score{Value: 85, Level: LevelHigh}))
	assert.False(t, Validate(Score{Value: 85, Level: LevelLow}))
	assert.False(t, Validate(Score{Value: -1, Level: LevelUncertain}))
	assert.False(t, Validate(Score{Value: 101, Level: LevelCertain}))
}

func TestMergeScores(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		merged := MergeScores(nil)
		assert.Equal(t, 0, merged.Value)
		assert.Equal(t, LevelUncertain, merged.Level)
	})

	t.Run("single passthrough", func(t *testing.T) {
		s := Score{Value: 72, Level: LevelMedium, PositiveFactors: []string{"x"}}
		assert.Equal(t, s, MergeScores([]Score{s}))
	})

	t.Run("weighted average favors confident scores", func(t *testing.T) {
		merged := MergeScores([]Score{
			{Value: 80, Level: LevelHigh, PositiveFactors: []string{"strong"}},
			{Value: 40, Level: LevelLow, NegativeFactors: []string{"weak"}},
		})
		// (80*80 + 40*40) / 120 = 66.67 -> 67
		assert.Equal(t, 67, merged.Value)
		assert.Equal(t, LevelMedium, merged.Level)
		assert.Contains(t, merged.PositiveFactors, "strong")
		assert.Contains(t, merged.NegativeFactors, "weak")
		assert.True(t, Validate(merged))
	})

	t.Run("factors deduplicated", func(t *testing.T) {
		merged := MergeScores([]Score{
			{Value: 60, Level: LevelMedium, PositiveFactors: []string{"same"}},
			{Value: 60, Level: LevelMedium, PositiveFactors: []string{"same"}},
		})
		require.Len(t, merged.PositiveFactors, 1)
	})

	t.Run("all zero scores", func(t *testing.T) {
		merged := MergeScores([]Score{
			{Value: 0, Level: LevelUncertain},
			{Value: 0, Level: LevelUncertain},
		})
		assert.Equal(t, 0, merged.Value)
		assert.Equal(t, LevelUncertain, merged.Level)
	})
}
