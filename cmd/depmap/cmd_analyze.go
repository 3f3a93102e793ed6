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
	analyzeRules  string
	analyzeJSON   bool
	analyzeFull   bool
	analyzeStrict bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <document>...",
	Short: "Assemble candidate documents into a validated graph",
	Long: `Assemble one or more collector candidate documents into a single
dependency graph, score every edge from its evidence, and validate the
result.

Multiple documents are assembled concurrently and merged; nodes
reported by more than one collector have their metadata unioned.

Examples:
  depmap analyze terraform.json
  depmap analyze terraform.json kubernetes.json --json
  depmap analyze stack.json --rules scoring-rules.yaml --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRules, "rules", "",
		"Scoring rules file (overrides configured default)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false,
		"Output as JSON for scripting")
	analyzeCmd.Flags().BoolVar(&analyzeFull, "full", false,
		"Include every node and edge in the output")
	analyzeCmd.Flags().BoolVar(&analyzeStrict, "strict", false,
		"Exit nonzero when validation reports warnings")
	rootCmd.AddCommand(analyzeCmd)
}

type analyzeResult struct {
	APIVersion string             `json:"api_version"`
	GraphID    string             `json:"graph_id"`
	Nodes      int                `json:"nodes"`
	Edges      int                `json:"edges"`
	Files      []string           `json:"files,omitempty"`
	DurationMs int64              `json:"duration_ms"`
	Validation *validationReport  `json:"validation"`
	NodeList   []nodeReport       `json:"node_list,omitempty"`
	EdgeList   []edgeReport       `json:"edge_list,omitempty"`
	ByType     map[string]int     `json:"by_type,omitempty"`
}

type validationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	start := time.Now()

	rules, err := loadRules(analyzeRules)
	if err != nil {
		return err
	}

	g, _, err := assembleAll(ctx, args, rules)
	if err != nil {
		return err
	}

	validation := graph.Validate(g)
	logger.Info("graph assembled",
		"graph_id", g.ID,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"valid", validation.IsValid,
	)

	result := analyzeResult{
		APIVersion: apiVersion,
		GraphID:    g.ID,
		Nodes:      g.NodeCount(),
		Edges:      g.EdgeCount(),
		Files:      g.Metadata.SourceFiles,
		DurationMs: time.Since(start).Milliseconds(),
		Validation: toValidationReport(validation),
	}
	if analyzeFull {
		result.NodeList = nodeReports(g)
		result.EdgeList = edgeReports(g)
	}
	byType := make(map[string]int, len(g.Metadata.NodeCounts))
	for t, n := range g.Metadata.NodeCounts {
		byType[t.String()] = n
	}
	result.ByType = byType

	if analyzeJSON {
		if err := writeJSON(result); err != nil {
			return err
		}
	} else {
		printAnalyzeText(result)
	}

	if !validation.IsValid {
		return fmt.Errorf("graph validation failed with %d error(s)", len(validation.Errors))
	}
	if analyzeStrict && len(validation.Warnings) > 0 {
		return fmt.Errorf("graph validation reported %d warning(s) under --strict", len(validation.Warnings))
	}
	return nil
}

func toValidationReport(v graph.ValidationResult) *validationReport {
	report := &validationReport{Valid: v.IsValid}
	for _, issue := range v.Errors {
		report.Errors = append(report.Errors, issue.Message)
	}
	for _, issue := range v.Warnings {
		report.Warnings = append(report.Warnings, issue.Message)
	}
	return report
}

func printAnalyzeText(r analyzeResult) {
	printHeader("Dependency Graph Analysis")

	fmt.Printf("Graph:  %s\n", r.GraphID)
	fmt.Printf("Nodes:  %d\n", r.Nodes)
	fmt.Printf("Edges:  %d\n", r.Edges)
	if len(r.Files) > 0 {
		fmt.Printf("Files:  %d\n", len(r.Files))
	}

	if len(r.ByType) > 0 {
		fmt.Println()
		fmt.Println("Nodes by type:")
		for _, n := range sortedKeys(r.ByType) {
			fmt.Printf("  %-30s %d\n", n, r.ByType[n])
		}
	}

	fmt.Println()
	if r.Validation.Valid {
		fmt.Printf("Validation: %s\n", colorize(colorGreen, "passed"))
	} else {
		fmt.Printf("Validation: %s\n", colorize(colorRed, "FAILED"))
		for _, msg := range r.Validation.Errors {
			fmt.Printf("  error: %s\n", msg)
		}
	}
	for _, msg := range r.Validation.Warnings {
		fmt.Printf("  %s %s\n", colorize(colorYellow, "warning:"), msg)
	}

	if analyzeFull {
		fmt.Println()
		fmt.Println("Edges:")
		for _, e := range r.EdgeList {
			fmt.Printf("  %s -> %s  [%s]  confidence=%d\n", e.Source, e.Target, e.Type, e.Confidence)
		}
	}

	fmt.Println()
	fmt.Printf("Completed in %dms\n", r.DurationMs)
}
