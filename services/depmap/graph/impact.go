// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sort"
	"time"
)

// RiskLevel classifies the blast radius of a change.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// riskRank orders levels for threshold comparisons.
var riskRank = map[RiskLevel]int{
	RiskLevelLow:      0,
	RiskLevelMedium:   1,
	RiskLevelHigh:     2,
	RiskLevelCritical: 3,
}

// ParseRiskLevel maps a flag value to a RiskLevel. Unrecognized values
// fall back to high.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return RiskLevel(s)
	default:
		return RiskLevelHigh
	}
}

// Exceeds reports whether the level is strictly above the threshold.
func (r RiskLevel) Exceeds(threshold RiskLevel) bool {
	return riskRank[r] > riskRank[threshold]
}

// RiskThresholds holds the minimum impacted-node totals for each level.
// A total below Medium is low risk.
type RiskThresholds struct {
	Medium   int
	High     int
	Critical int
}

// DefaultRiskThresholds yields: 0 -> low, 1-5 -> medium, 6-20 -> high,
// >20 -> critical.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{Medium: 1, High: 6, Critical: 21}
}

// Level classifies a total impacted-node count.
func (t RiskThresholds) Level(totalImpacted int) RiskLevel {
	switch {
	case totalImpacted >= t.Critical:
		return RiskLevelCritical
	case totalImpacted >= t.High:
		return RiskLevelHigh
	case totalImpacted >= t.Medium:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// ImpactOptions configures AnalyzeImpact.
type ImpactOptions struct {
	// Thresholds are the risk classification cutoffs. Call sites that
	// need stricter policies override them; defaults follow
	// DefaultRiskThresholds.
	Thresholds RiskThresholds

	// MaxDepth bounds the transitive exploration. Zero means unbounded.
	MaxDepth int
}

// ImpactOption is a functional option for configuring impact analysis.
type ImpactOption func(*ImpactOptions)

// WithRiskThresholds overrides the risk classification cutoffs.
func WithRiskThresholds(t RiskThresholds) ImpactOption {
	return func(o *ImpactOptions) {
		o.Thresholds = t
	}
}

// WithImpactMaxDepth bounds the transitive exploration depth.
func WithImpactMaxDepth(d int) ImpactOption {
	return func(o *ImpactOptions) {
		if d < 0 {
			d = 0
		}
		o.MaxDepth = d
	}
}

// ImpactSummary aggregates an impact analysis.
type ImpactSummary struct {
	// TotalImpacted is the size of the direct ∪ transitive impact set.
	TotalImpacted int

	// ImpactByType groups impacted nodes by type; the counts sum to
	// TotalImpacted.
	ImpactByType map[NodeType]int

	// RiskLevel is derived from TotalImpacted via the thresholds.
	RiskLevel RiskLevel
}

// ImpactResult is the outcome of AnalyzeImpact.
type ImpactResult struct {
	// DirectImpact contains nodes exactly one downstream hop from any
	// changed node.
	DirectImpact []*Node

	// TransitiveImpact contains nodes at depth greater than one,
	// excluding anything already in DirectImpact.
	TransitiveImpact []*Node

	// Summary aggregates both sets.
	Summary ImpactSummary
}

// AnalyzeImpact classifies the blast radius of a set of changed nodes.
//
// Description:
//
//	Explores downstream dependents of every changed node. Nodes reachable
//	within one hop form the direct impact; nodes only reachable deeper
//	form the transitive impact. The changed nodes themselves are never
//	counted as impacted. Unknown changed IDs contribute nothing.
//
//	Time complexity: O(V + E) per changed node.
//
// Thread Safety: Safe for concurrent use on a built snapshot.
func AnalyzeImpact(ctx context.Context, g *Graph, changedNodeIDs []string, opts ...ImpactOption) *ImpactResult {
	ctx, span := startQuerySpan(ctx, "AnalyzeImpact", joinIDs(changedNodeIDs))
	defer span.End()
	start := time.Now()
	defer func() {
		recordQueryMetrics(ctx, "impact", time.Since(start))
	}()

	options := ImpactOptions{Thresholds: DefaultRiskThresholds()}
	for _, opt := range opts {
		opt(&options)
	}

	changed := make(map[string]bool, len(changedNodeIDs))
	for _, id := range changedNodeIDs {
		changed[id] = true
	}

	direct := make(map[string]*Node)
	all := make(map[string]*Node)

	travOpts := []TraversalOption{}
	if options.MaxDepth > 0 {
		travOpts = append(travOpts, WithMaxDepth(options.MaxDepth))
	}

	for _, id := range changedNodeIDs {
		res := Downstream(ctx, g, id, travOpts...)
		for i, node := range res.Nodes {
			if changed[node.ID] {
				continue
			}
			all[node.ID] = node
			if res.Paths[i].Length == 1 {
				direct[node.ID] = node
			}
		}
	}

	result := &ImpactResult{
		DirectImpact:     make([]*Node, 0, len(direct)),
		TransitiveImpact: make([]*Node, 0),
	}

	byType := make(map[NodeType]int)
	for id, node := range all {
		byType[node.Type]++
		if _, isDirect := direct[id]; isDirect {
			result.DirectImpact = append(result.DirectImpact, node)
		} else {
			result.TransitiveImpact = append(result.TransitiveImpact, node)
		}
	}
	sortNodes(result.DirectImpact)
	sortNodes(result.TransitiveImpact)

	result.Summary = ImpactSummary{
		TotalImpacted: len(all),
		ImpactByType:  byType,
		RiskLevel:     options.Thresholds.Level(len(all)),
	}
	return result
}

// sortNodes orders nodes by ID for deterministic output.
func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
}

// joinIDs renders a changed-ID set for span attribution, truncated to keep
// attribute cardinality sane.
func joinIDs(ids []string) string {
	const maxShown = 5
	out := ""
	for i, id := range ids {
		if i >= maxShown {
			out += ",..."
			break
		}
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}
