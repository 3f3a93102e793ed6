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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/graph"
)

var (
	cyclesRules string
	cyclesJSON  bool
	cyclesQuiet bool
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles <document>...",
	Short: "Detect circular dependencies",
	Long: `Detect circular dependencies in the assembled graph. Terraform
rejects cycles at plan time; finding them here surfaces the problem
before any plan runs.

Exits 1 when cycles are found, so CI pipelines can gate on it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCycles,
}

func init() {
	cyclesCmd.Flags().StringVar(&cyclesRules, "rules", "",
		"Scoring rules file (overrides configured default)")
	cyclesCmd.Flags().BoolVar(&cyclesJSON, "json", false,
		"Output as JSON for scripting")
	cyclesCmd.Flags().BoolVar(&cyclesQuiet, "quiet", false,
		"Only exit code, no output")
	rootCmd.AddCommand(cyclesCmd)
}

type cyclesOutput struct {
	APIVersion    string       `json:"api_version"`
	GraphID       string       `json:"graph_id"`
	CyclesFound   int          `json:"cycles_found"`
	NodesInCycles int          `json:"nodes_in_cycles"`
	Cycles        [][]string   `json:"cycles,omitempty"`
	DurationMs    int64        `json:"duration_ms"`
}

func runCycles(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	start := time.Now()

	rules, err := loadRules(cyclesRules)
	if err != nil {
		return err
	}

	g, _, err := assembleAll(ctx, args, rules)
	if err != nil {
		return err
	}

	report := graph.DetectCycles(g)
	logger.Info("cycle detection finished",
		"graph_id", g.ID,
		"cycles", report.Stats.CyclesFound,
	)

	out := cyclesOutput{
		APIVersion:    apiVersion,
		GraphID:       g.ID,
		CyclesFound:   report.Stats.CyclesFound,
		NodesInCycles: report.Stats.NodesInCycles,
		DurationMs:    time.Since(start).Milliseconds(),
	}
	for _, c := range report.Cycles {
		out.Cycles = append(out.Cycles, c.NodeIDs)
	}

	if !cyclesQuiet {
		if cyclesJSON {
			if err := writeJSON(out); err != nil {
				return err
			}
		} else {
			printCyclesText(out)
		}
	}

	if out.CyclesFound > 0 {
		exitThresholdExceeded(cmd.Context())
	}
	return nil
}

func printCyclesText(out cyclesOutput) {
	printHeader("Cycle Detection")

	if out.CyclesFound == 0 {
		fmt.Printf("%s no circular dependencies found\n", colorize(colorGreen, "OK:"))
		fmt.Println()
		fmt.Printf("Completed in %dms\n", out.DurationMs)
		return
	}

	fmt.Printf("%s %d cycle(s) involving %d node(s)\n",
		colorize(colorRed, "FAIL:"), out.CyclesFound, out.NodesInCycles)
	fmt.Println()
	for i, cycle := range out.Cycles {
		fmt.Printf("  %d. %s -> %s\n", i+1, strings.Join(cycle, " -> "), cycle[0])
	}
	fmt.Println()
	fmt.Printf("Completed in %dms\n", out.DurationMs)
}
