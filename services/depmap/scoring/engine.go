// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring turns evidence collections into confidence scores.
//
// Scoring never fails: every Calculate call returns a well-formed Score,
// including the degenerate all-zero score for empty evidence. Low
// confidence is data, not an error.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/evidence"
)

// Level classifies a confidence value into a human-meaningful bucket.
type Level string

const (
	LevelCertain   Level = "certain"
	LevelHigh      Level = "high"
	LevelMedium    Level = "medium"
	LevelLow       Level = "low"
	LevelUncertain Level = "uncertain"
)

// Fixed level thresholds. The level is always derived from the value and
// never set independently.
const (
	certainThreshold = 95
	highThreshold    = 80
	mediumThreshold  = 60
	lowThreshold     = 40
)

// LevelForValue derives the level for a confidence value.
func LevelForValue(value int) Level {
	switch {
	case value >= certainThreshold:
		return LevelCertain
	case value >= highThreshold:
		return LevelHigh
	case value >= mediumThreshold:
		return LevelMedium
	case value >= lowThreshold:
		return LevelLow
	default:
		return LevelUncertain
	}
}

// Config holds the scoring weights and adjustments.
type Config struct {
	// Per-category weights scaling each evidence item's contribution to
	// the base score. Explicit evidence is trusted fully; heuristics are
	// discounted.
	ExplicitWeight   float64
	SyntaxWeight     float64
	SemanticWeight   float64
	StructuralWeight float64
	HeuristicWeight  float64

	// ExplicitBonus is added once when any evidence is explicit.
	ExplicitBonus float64

	// HeuristicPenalty is subtracted once when all evidence is heuristic.
	HeuristicPenalty float64

	// PatternBonus is added once when evidence spans three or more
	// distinct categories.
	PatternBonus float64

	// EnableDiminishingReturns scales the base score by a sub-linear
	// function of the evidence count. When false the multiplier is a
	// flat 1.0.
	EnableDiminishingReturns bool
}

// DefaultConfig returns the stock scoring configuration.
func DefaultConfig() Config {
	return Config{
		ExplicitWeight:           1.0,
		SyntaxWeight:             0.9,
		SemanticWeight:           0.85,
		StructuralWeight:         0.75,
		HeuristicWeight:          0.5,
		ExplicitBonus:            10,
		HeuristicPenalty:         15,
		PatternBonus:             5,
		EnableDiminishingReturns: true,
	}
}

// categoryWeight returns the configured weight for an evidence category.
// Unknown categories are discounted like heuristics.
func (c Config) categoryWeight(cat evidence.Category) float64 {
	switch cat {
	case evidence.CategoryExplicit:
		return c.ExplicitWeight
	case evidence.CategorySyntax:
		return c.SyntaxWeight
	case evidence.CategorySemantic:
		return c.SemanticWeight
	case evidence.CategoryStructural:
		return c.StructuralWeight
	default:
		return c.HeuristicWeight
	}
}

// Breakdown itemizes how a score value was assembled.
type Breakdown struct {
	// BaseScore is the category-weighted mean of the evidence
	// confidences.
	BaseScore float64

	// EvidenceMultiplier is the corroboration multiplier applied to the
	// base score.
	EvidenceMultiplier float64

	// ExplicitBonus, HeuristicPenalty, and PatternBonus are the flat
	// adjustments that applied (zero otherwise).
	ExplicitBonus    float64
	HeuristicPenalty float64
	PatternBonus     float64

	// RuleContribution is the summed contribution of matched custom
	// rules.
	RuleContribution float64
}

// Score is an aggregated, leveled confidence value.
type Score struct {
	// Value is the normalized confidence in [0, 100].
	Value int

	// Breakdown itemizes the calculation.
	Breakdown Breakdown

	// Level is derived from Value; Validate rejects scores where the two
	// disagree.
	Level Level

	// PositiveFactors and NegativeFactors explain the score in
	// human-readable terms.
	PositiveFactors []string
	NegativeFactors []string
}

// Engine computes confidence scores from evidence.
//
// Thread Safety: Safe for concurrent use; all state is read-only after
// construction.
type Engine struct {
	config Config
	rules  *RuleEngine
}

// EngineOption is a functional option for configuring Engine.
type EngineOption func(*Engine)

// WithConfig overrides the scoring configuration.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithRuleEngine overrides the rule engine, e.g. to share a regex cache.
func WithRuleEngine(re *RuleEngine) EngineOption {
	return func(e *Engine) {
		e.rules = re
	}
}

// NewEngine creates a scoring engine with the default configuration.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	if e.rules == nil {
		e.rules = NewRuleEngine()
	}
	return e
}

// Config returns the engine's scoring configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Calculate scores a set of evidence items for one candidate relationship.
//
// Description:
//
//	value = normalize(base × multiplier + explicitBonus + patternBonus
//	        − heuristicPenalty + Σ rule contributions, 0, 100)
//
//	The base score is the category-weighted mean of the evidence
//	confidences. The multiplier rewards corroboration sub-linearly:
//	1 + 0.25·ln(n), capped at 1.75 (three items ≈ 1.27×). Custom rules
//	evaluated by the rule engine contribute independently of the
//	built-in terms.
//
//	Empty evidence yields the zero score with level "uncertain". Scoring
//	has no failure mode.
func (e *Engine) Calculate(ctx context.Context, items []evidence.Evidence, customRules ...Rule) Score {
	ctx, span := startScoreSpan(ctx, len(items))
	defer span.End()
	start := time.Now()

	score := e.calculate(items, customRules)

	recordScoreMetrics(ctx, time.Since(start), score.Value, len(items))
	setScoreSpanResult(span, score.Value, string(score.Level))
	return score
}

func (e *Engine) calculate(items []evidence.Evidence, customRules []Rule) Score {
	if len(items) == 0 {
		return Score{
			Value:           0,
			Level:           LevelUncertain,
			NegativeFactors: []string{"No evidence provided"},
		}
	}

	coll := evidence.NewCollection(items)

	weighted := 0.0
	for _, item := range items {
		weighted += float64(item.Confidence) * e.config.categoryWeight(item.Category)
	}
	base := weighted / float64(len(items))

	multiplier := 1.0
	if e.config.EnableDiminishingReturns && len(items) > 1 {
		multiplier = math.Min(1+0.25*math.Log(float64(len(items))), 1.75)
	}

	breakdown := Breakdown{
		BaseScore:          base,
		EvidenceMultiplier: multiplier,
	}

	var positive, negative []string
	if len(items) > 1 {
		positive = append(positive, fmt.Sprintf("%d corroborating evidence items", len(items)))
	}

	if coll.HasExplicit() {
		breakdown.ExplicitBonus = e.config.ExplicitBonus
		positive = append(positive, "explicit relationship evidence present")
	}
	if coll.AllHeuristic() {
		breakdown.HeuristicPenalty = e.config.HeuristicPenalty
		negative = append(negative, "all evidence is heuristic")
	}
	if coll.Categories() >= 3 {
		breakdown.PatternBonus = e.config.PatternBonus
		positive = append(positive, fmt.Sprintf("evidence spans %d categories", coll.Categories()))
	}

	for _, match := range e.rules.Evaluate(items, customRules) {
		if match.MatchedCount == 0 {
			continue
		}
		breakdown.RuleContribution += match.Contribution
		if match.Contribution >= 0 {
			positive = append(positive, fmt.Sprintf("rule %q matched %d item(s)", match.Rule.Name, match.MatchedCount))
		} else {
			negative = append(negative, fmt.Sprintf("rule %q matched %d item(s)", match.Rule.Name, match.MatchedCount))
		}
	}

	raw := base*multiplier +
		breakdown.ExplicitBonus +
		breakdown.PatternBonus -
		breakdown.HeuristicPenalty +
		breakdown.RuleContribution
	value := normalize(raw)

	if value < lowThreshold {
		negative = append(negative, "aggregate confidence below reporting threshold")
	}

	return Score{
		Value:           value,
		Breakdown:       breakdown,
		Level:           LevelForValue(value),
		PositiveFactors: positive,
		NegativeFactors: negative,
	}
}

// normalize rounds and bounds a raw score to [0, 100].
func normalize(raw float64) int {
	v := int(math.Round(raw))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Validate reports whether a score is well-formed: value within [0, 100]
// and level consistent with the value.
func Validate(s Score) bool {
	if s.Value < 0 || s.Value > 100 {
		return false
	}
	return s.Level == LevelForValue(s.Value)
}

// MergeScores combines scores for the same relationship from independent
// calculations.
//
// Description:
//
//	Empty input yields the zero score. A single score is returned
//	unchanged. Multiple scores are combined by a confidence-weighted
//	average of their values (each score weighted by its own value, so
//	higher-confidence scores dominate), a deduplicated union of factors,
//	and an additive merge of breakdown fields.
func MergeScores(scores []Score) Score {
	switch len(scores) {
	case 0:
		return Score{Value: 0, Level: LevelUncertain}
	case 1:
		return scores[0]
	}

	var weightedSum, weightTotal float64
	var breakdown Breakdown
	positive := make([]string, 0)
	negative := make([]string, 0)
	seenPos := make(map[string]bool)
	seenNeg := make(map[string]bool)

	for _, s := range scores {
		w := float64(s.Value)
		weightedSum += float64(s.Value) * w
		weightTotal += w

		breakdown.BaseScore += s.Breakdown.BaseScore
		breakdown.EvidenceMultiplier += s.Breakdown.EvidenceMultiplier
		breakdown.ExplicitBonus += s.Breakdown.ExplicitBonus
		breakdown.HeuristicPenalty += s.Breakdown.HeuristicPenalty
		breakdown.PatternBonus += s.Breakdown.PatternBonus
		breakdown.RuleContribution += s.Breakdown.RuleContribution

		for _, f := range s.PositiveFactors {
			if !seenPos[f] {
				seenPos[f] = true
				positive = append(positive, f)
			}
		}
		for _, f := range s.NegativeFactors {
			if !seenNeg[f] {
				seenNeg[f] = true
				negative = append(negative, f)
			}
		}
	}

	value := 0
	if weightTotal > 0 {
		value = normalize(weightedSum / weightTotal)
	}

	return Score{
		Value:           value,
		Breakdown:       breakdown,
		Level:           LevelForValue(value),
		PositiveFactors: positive,
		NegativeFactors: negative,
	}
}
