// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/scoring"
)

var (
	scoreRules string
	scoreEdge  string
	scoreMin   int
	scoreMax   int
	scoreJSON  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <document>...",
	Short: "Show confidence scores for assembled relationships",
	Long: `Show the evidence-based confidence score of every relationship in
the assembled graph, with the factor breakdown explaining each value.

Examples:
  depmap score stack.json
  depmap score stack.json --edge 'aws_subnet.public->aws_vpc.main#references'
  depmap score stack.json --max 59 --json   (low-confidence edges only)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreRules, "rules", "",
		"Scoring rules file (overrides configured default)")
	scoreCmd.Flags().StringVar(&scoreEdge, "edge", "",
		"Show only the given edge ID")
	scoreCmd.Flags().IntVar(&scoreMin, "min", 0,
		"Show only edges with confidence >= min")
	scoreCmd.Flags().IntVar(&scoreMax, "max", 100,
		"Show only edges with confidence <= max")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false,
		"Output as JSON for scripting")
	rootCmd.AddCommand(scoreCmd)
}

type edgeScoreReport struct {
	EdgeID          string            `json:"edge_id"`
	Value           int               `json:"value"`
	Level           scoring.Level     `json:"level"`
	Breakdown       scoring.Breakdown `json:"breakdown"`
	PositiveFactors []string          `json:"positive_factors,omitempty"`
	NegativeFactors []string          `json:"negative_factors,omitempty"`
}

type scoreOutput struct {
	APIVersion string            `json:"api_version"`
	GraphID    string            `json:"graph_id"`
	Edges      []edgeScoreReport `json:"edges"`
	DurationMs int64             `json:"duration_ms"`
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	start := time.Now()

	rules, err := loadRules(scoreRules)
	if err != nil {
		return err
	}

	g, scores, err := assembleAll(ctx, args, rules)
	if err != nil {
		return err
	}

	out := scoreOutput{
		APIVersion: apiVersion,
		GraphID:    g.ID,
	}
	for id, s := range scores {
		if scoreEdge != "" && id != scoreEdge {
			continue
		}
		if s.Value < scoreMin || s.Value > scoreMax {
			continue
		}
		out.Edges = append(out.Edges, edgeScoreReport{
			EdgeID:          id,
			Value:           s.Value,
			Level:           s.Level,
			Breakdown:       s.Breakdown,
			PositiveFactors: s.PositiveFactors,
			NegativeFactors: s.NegativeFactors,
		})
	}
	sort.Slice(out.Edges, func(i, j int) bool {
		if out.Edges[i].Value != out.Edges[j].Value {
			return out.Edges[i].Value > out.Edges[j].Value
		}
		return out.Edges[i].EdgeID < out.Edges[j].EdgeID
	})
	out.DurationMs = time.Since(start).Milliseconds()

	if scoreEdge != "" && len(out.Edges) == 0 {
		return fmt.Errorf("edge %q not found in assembled graph", scoreEdge)
	}

	if scoreJSON {
		return writeJSON(out)
	}
	printScoreText(out)
	return nil
}

func printScoreText(out scoreOutput) {
	printHeader("Relationship Confidence")

	if len(out.Edges) == 0 {
		fmt.Println("No edges matched the filters.")
		return
	}

	for _, e := range out.Edges {
		fmt.Printf("%s\n", e.EdgeID)
		fmt.Printf("  score: %3d  (%s)\n", e.Value, colorize(levelColor(e.Level), string(e.Level)))
		for _, f := range e.PositiveFactors {
			fmt.Printf("  + %s\n", f)
		}
		for _, f := range e.NegativeFactors {
			fmt.Printf("  - %s\n", f)
		}
		fmt.Println()
	}

	fmt.Printf("%d edge(s), completed in %dms\n", len(out.Edges), out.DurationMs)
}
