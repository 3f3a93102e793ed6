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
	"fmt"
	"sort"
)

// IssueCode classifies a validation finding.
type IssueCode string

// Validation issue codes. Dangling endpoints are errors; the rest are
// warnings and do not affect validity.
const (
	IssueDanglingSource IssueCode = "DANGLING_SOURCE"
	IssueDanglingTarget IssueCode = "DANGLING_TARGET"
	IssueSelfLoop       IssueCode = "SELF_LOOP"
	IssueOrphanNode     IssueCode = "ORPHAN_NODE"
	IssueCycleDetected  IssueCode = "CYCLE_DETECTED"
)

// Issue is a single validation finding.
type Issue struct {
	// Code classifies the finding.
	Code IssueCode

	// NodeID and EdgeID identify the offending element; one of them may
	// be empty depending on the code.
	NodeID string
	EdgeID string

	// Message is a human-readable description.
	Message string
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	// IsValid is true when no errors were found. Warnings never affect it.
	IsValid  bool
	Errors   []Issue
	Warnings []Issue
}

// Validate checks a built snapshot for structural soundness.
//
// Description:
//
//	Errors (IsValid=false): DANGLING_SOURCE and DANGLING_TARGET, i.e. an
//	edge endpoint missing from the node set. These can only occur when
//	the graph was built with validation disabled.
//
//	Warnings: SELF_LOOP (source==target), ORPHAN_NODE (no incoming and no
//	outgoing edges), CYCLE_DETECTED (at least one cycle exists).
//
//	Time complexity: O(V + E).
func Validate(g *Graph) ValidationResult {
	result := ValidationResult{IsValid: true}

	for _, e := range g.edges {
		if !g.HasNode(e.SourceID) {
			result.Errors = append(result.Errors, Issue{
				Code:    IssueDanglingSource,
				EdgeID:  e.ID,
				NodeID:  e.SourceID,
				Message: fmt.Sprintf("edge %q references missing source node %q", e.ID, e.SourceID),
			})
		}
		if !g.HasNode(e.TargetID) {
			result.Errors = append(result.Errors, Issue{
				Code:    IssueDanglingTarget,
				EdgeID:  e.ID,
				NodeID:  e.TargetID,
				Message: fmt.Sprintf("edge %q references missing target node %q", e.ID, e.TargetID),
			})
		}
		if e.SourceID == e.TargetID {
			result.Warnings = append(result.Warnings, Issue{
				Code:    IssueSelfLoop,
				EdgeID:  e.ID,
				NodeID:  e.SourceID,
				Message: fmt.Sprintf("edge %q is a self-loop on node %q", e.ID, e.SourceID),
			})
		}
	}

	for _, id := range FindOrphanNodes(g) {
		result.Warnings = append(result.Warnings, Issue{
			Code:    IssueOrphanNode,
			NodeID:  id,
			Message: fmt.Sprintf("node %q has no incoming or outgoing edges", id),
		})
	}

	if HasCycles(g) {
		result.Warnings = append(result.Warnings, Issue{
			Code:    IssueCycleDetected,
			Message: "graph contains at least one dependency cycle",
		})
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// dfsColor is the visit state used by the cycle check.
type dfsColor uint8

const (
	colorWhite dfsColor = iota // unvisited
	colorGray                  // on the current DFS path
	colorBlack                 // fully explored
)

// HasCycles reports whether the graph contains at least one directed cycle.
//
// Description:
//
//	Three-color DFS over outgoing edges: a back-edge to a gray node is a
//	cycle. Iterative to stay safe on deep dependency chains. Returns
//	false for an empty graph.
//
//	Time complexity: O(V + E).
func HasCycles(g *Graph) bool {
	colors := make(map[string]dfsColor, len(g.nodes))

	type frame struct {
		id        string
		edgeIndex int
	}

	for startID := range g.nodes {
		if colors[startID] != colorWhite {
			continue
		}

		stack := []frame{{id: startID}}
		colors[startID] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			out := g.outgoing[top.id]

			advanced := false
			for top.edgeIndex < len(out) {
				next := out[top.edgeIndex].TargetID
				top.edgeIndex++

				switch colors[next] {
				case colorGray:
					return true
				case colorWhite:
					if !g.HasNode(next) {
						// Dangling target; skip rather than fault.
						continue
					}
					colors[next] = colorGray
					stack = append(stack, frame{id: next})
					advanced = true
				}
				if advanced {
					break
				}
			}

			if !advanced && top.edgeIndex >= len(out) {
				colors[top.id] = colorBlack
				stack = stack[:len(stack)-1]
			}
		}
	}

	return false
}

// FindOrphanNodes returns the sorted IDs of nodes that appear in no edge,
// neither as source nor as target.
func FindOrphanNodes(g *Graph) []string {
	orphans := make([]string, 0)
	for id := range g.nodes {
		if len(g.outgoing[id]) == 0 && len(g.incoming[id]) == 0 {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	return orphans
}

// FindUnreachableNodes returns the sorted IDs of nodes not reachable from
// startID along outgoing edges. If startID does not exist, every node ID is
// returned.
func FindUnreachableNodes(g *Graph, startID string) []string {
	reached := make(map[string]bool, len(g.nodes))

	if g.HasNode(startID) {
		queue := []string{startID}
		reached[startID] = true
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, e := range g.outgoing[current] {
				if !reached[e.TargetID] && g.HasNode(e.TargetID) {
					reached[e.TargetID] = true
					queue = append(queue, e.TargetID)
				}
			}
		}
	}

	unreachable := make([]string, 0)
	for id := range g.nodes {
		if !reached[id] {
			unreachable = append(unreachable, id)
		}
	}
	sort.Strings(unreachable)
	return unreachable
}
