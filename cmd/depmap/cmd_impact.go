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
	"time"

	"github.com/spf13/cobra"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/graph"
)

var (
	impactChanged   []string
	impactRules     string
	impactThreshold string
	impactMaxDepth  int
	impactJSON      bool
	impactQuiet     bool
)

var impactCmd = &cobra.Command{
	Use:   "impact <document>...",
	Short: "Analyze the blast radius of changed infrastructure nodes",
	Long: `Analyze which parts of the infrastructure are affected when the
given nodes change. Reports direct dependents, the full transitive
impact set, and a risk classification.

CI/CD Integration:
  depmap impact stack.json --changed aws_vpc.main --threshold medium --json
  (exits 1 if risk exceeds the threshold)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().StringSliceVar(&impactChanged, "changed", nil,
		"Node IDs that changed (required)")
	impactCmd.Flags().StringVar(&impactRules, "rules", "",
		"Scoring rules file (overrides configured default)")
	impactCmd.Flags().StringVar(&impactThreshold, "threshold", "high",
		"Risk threshold for exit code: low, medium, high, critical")
	impactCmd.Flags().IntVar(&impactMaxDepth, "max-depth", 0,
		"Maximum transitive depth (0 = unbounded)")
	impactCmd.Flags().BoolVar(&impactJSON, "json", false,
		"Output as JSON for scripting")
	impactCmd.Flags().BoolVar(&impactQuiet, "quiet", false,
		"Only exit code, no output")
	impactCmd.MarkFlagRequired("changed")
	rootCmd.AddCommand(impactCmd)
}

type impactOutput struct {
	APIVersion string          `json:"api_version"`
	GraphID    string          `json:"graph_id"`
	Changed    []string        `json:"changed"`
	Direct     []nodeReport    `json:"direct_impact"`
	Transitive []nodeReport    `json:"transitive_impact"`
	Total      int             `json:"total_impacted"`
	ByType     map[string]int  `json:"impact_by_type"`
	RiskLevel  graph.RiskLevel `json:"risk_level"`
	DurationMs int64           `json:"duration_ms"`
}

func runImpact(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	start := time.Now()

	rules, err := loadRules(impactRules)
	if err != nil {
		return err
	}

	g, _, err := assembleAll(ctx, args, rules)
	if err != nil {
		return err
	}

	var opts []graph.ImpactOption
	if impactMaxDepth > 0 {
		opts = append(opts, graph.WithImpactMaxDepth(impactMaxDepth))
	}
	result := graph.AnalyzeImpact(ctx, g, impactChanged, opts...)

	logger.Info("impact analyzed",
		"changed", len(impactChanged),
		"total_impacted", result.Summary.TotalImpacted,
		"risk", string(result.Summary.RiskLevel),
	)

	out := impactOutput{
		APIVersion: apiVersion,
		GraphID:    g.ID,
		Changed:    impactChanged,
		Direct:     toNodeReports(result.DirectImpact),
		Transitive: toNodeReports(result.TransitiveImpact),
		Total:      result.Summary.TotalImpacted,
		RiskLevel:  result.Summary.RiskLevel,
		DurationMs: time.Since(start).Milliseconds(),
	}
	out.ByType = make(map[string]int, len(result.Summary.ImpactByType))
	for t, n := range result.Summary.ImpactByType {
		out.ByType[t.String()] = n
	}

	if !impactQuiet {
		if impactJSON {
			if err := writeJSON(out); err != nil {
				return err
			}
		} else {
			printImpactText(out)
		}
	}

	threshold := graph.ParseRiskLevel(impactThreshold)
	if result.Summary.RiskLevel.Exceeds(threshold) {
		exitThresholdExceeded(cmd.Context())
	}
	return nil
}

func toNodeReports(nodes []*graph.Node) []nodeReport {
	out := make([]nodeReport, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeReport{
			ID:   n.ID,
			Type: n.Type.String(),
			Name: n.Name,
			File: n.Location.File,
		})
	}
	return out
}

func printImpactText(out impactOutput) {
	printHeader("Impact Analysis")

	fmt.Printf("Changed nodes: %d\n", len(out.Changed))
	for _, id := range out.Changed {
		fmt.Printf("  %s\n", id)
	}

	fmt.Println()
	fmt.Println("Blast Radius:")
	fmt.Printf("  Direct dependents:   %d\n", len(out.Direct))
	fmt.Printf("  Transitive impact:   %d\n", len(out.Transitive))
	fmt.Printf("  Total affected:      %d\n", out.Total)

	if len(out.ByType) > 0 {
		fmt.Println()
		fmt.Println("Affected by type:")
		for _, t := range sortedKeys(out.ByType) {
			fmt.Printf("  %-30s %d\n", t, out.ByType[t])
		}
	}

	fmt.Println()
	fmt.Printf("Risk: %s\n", colorize(riskColor(out.RiskLevel), string(out.RiskLevel)))

	if len(out.Direct) > 0 {
		fmt.Println()
		fmt.Println("Direct dependents:")
		for _, n := range out.Direct {
			fmt.Printf("  %s  (%s)\n", n.ID, n.Type)
		}
	}

	fmt.Println()
	fmt.Printf("Completed in %dms\n", out.DurationMs)
}
