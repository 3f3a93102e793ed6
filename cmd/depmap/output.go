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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/graph"
	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/scoring"
)

// apiVersion is embedded in every JSON result so scripted consumers can
// detect format changes.
const apiVersion = "depmap/v1"

// ANSI colors, used only when stdout is a terminal.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
)

func useColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// colorize wraps s in the given color when stdout is a terminal.
func colorize(color, s string) string {
	if !useColor() {
		return s
	}
	return color + s + colorReset
}

// riskColor maps a risk level to its display color.
func riskColor(level graph.RiskLevel) string {
	switch level {
	case graph.RiskLevelCritical, graph.RiskLevelHigh:
		return colorRed
	case graph.RiskLevelMedium:
		return colorYellow
	default:
		return colorGreen
	}
}

// levelColor maps a confidence level to its display color.
func levelColor(level scoring.Level) string {
	switch level {
	case scoring.LevelCertain, scoring.LevelHigh:
		return colorGreen
	case scoring.LevelMedium:
		return colorYellow
	default:
		return colorRed
	}
}

func printHeader(title string) {
	fmt.Println(colorize(colorCyan, title))
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()
}

// sortedKeys returns the map's keys in sorted order for stable output.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeJSON emits an indented JSON document on stdout.
func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// nodeReport and edgeReport are the JSON views of graph elements.
type nodeReport struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	File string `json:"file,omitempty"`
}

type edgeReport struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	Implicit   bool   `json:"implicit,omitempty"`
}

func nodeReports(g *graph.Graph) []nodeReport {
	nodes := g.Nodes()
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

func edgeReports(g *graph.Graph) []edgeReport {
	edges := g.Edges()
	out := make([]edgeReport, 0, len(edges))
	for _, e := range edges {
		out = append(out, edgeReport{
			ID:         e.ID,
			Source:     e.SourceID,
			Target:     e.TargetID,
			Type:       e.Type.String(),
			Confidence: e.Metadata.Confidence,
			Implicit:   e.Metadata.Implicit,
		})
	}
	return out
}
