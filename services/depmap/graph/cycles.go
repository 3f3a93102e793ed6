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
	"time"
)

// Cycle is one enumerated dependency cycle.
type Cycle struct {
	// NodeIDs contains the node IDs in cycle order.
	NodeIDs []string

	// Length is the number of edges traversed to return to the start
	// node: len(NodeIDs) for multi-node cycles, 1 for a self-loop.
	Length int
}

// CycleStats summarizes a detection run.
type CycleStats struct {
	// CyclesFound is the number of cycles reported.
	CyclesFound int

	// NodesInCycles is the count of distinct nodes across all cycles.
	NodesInCycles int

	// DetectionTime is the elapsed wall time of the detection run.
	DetectionTime time.Duration
}

// CycleReport is the outcome of DetectCycles.
type CycleReport struct {
	HasCycles bool
	Cycles    []Cycle
	Stats     CycleStats
}

// DetectCycles enumerates all dependency cycles in the graph.
//
// Description:
//
//	Computes strongly connected components with Tarjan's algorithm over
//	the directed edge set. Every SCC with more than one node is one
//	cycle, as is a single node with a self-loop. The implementation uses
//	an explicit call stack to avoid stack overflow on deep graphs,
//	following the iterative frame/phase pattern used elsewhere in this
//	codebase.
//
//	Time complexity: O(V + E). Space complexity: O(V).
//
// Thread Safety: Safe for concurrent use on a built snapshot.
func DetectCycles(g *Graph) CycleReport {
	start := time.Now()

	index := 0
	nodeIndex := make(map[string]int, len(g.nodes))
	nodeLowLink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	sccStack := make([]string, 0)
	sccs := make([][]string, 0)

	// callFrame represents a stack frame in the iterative Tarjan's
	// algorithm, replacing the recursive call stack.
	type callFrame struct {
		nodeID    string
		edgeIndex int    // current index into outgoing edges
		phase     int    // 0=init, 1=process edges, 2=post-child, 3=finalize
		childID   string // child we just returned from (phase 2)
	}

	strongConnect := func(startNodeID string) {
		callStack := []callFrame{{nodeID: startNodeID}}

		for len(callStack) > 0 {
			frame := &callStack[len(callStack)-1]

			switch frame.phase {
			case 0:
				nodeIndex[frame.nodeID] = index
				nodeLowLink[frame.nodeID] = index
				index++
				sccStack = append(sccStack, frame.nodeID)
				onStack[frame.nodeID] = true
				frame.phase = 1

			case 1:
				out := g.outgoing[frame.nodeID]

				pushed := false
				for frame.edgeIndex < len(out) {
					target := out[frame.edgeIndex].TargetID
					frame.edgeIndex++

					if !g.HasNode(target) {
						continue
					}
					if _, visited := nodeIndex[target]; !visited {
						frame.phase = 2
						frame.childID = target
						callStack = append(callStack, callFrame{nodeID: target})
						pushed = true
						break
					}
					if onStack[target] && nodeIndex[target] < nodeLowLink[frame.nodeID] {
						nodeLowLink[frame.nodeID] = nodeIndex[target]
					}
				}
				if !pushed && frame.edgeIndex >= len(out) {
					frame.phase = 3
				}

			case 2:
				if nodeLowLink[frame.childID] < nodeLowLink[frame.nodeID] {
					nodeLowLink[frame.nodeID] = nodeLowLink[frame.childID]
				}
				frame.phase = 1

			case 3:
				if nodeLowLink[frame.nodeID] == nodeIndex[frame.nodeID] {
					scc := make([]string, 0)
					for {
						w := sccStack[len(sccStack)-1]
						sccStack = sccStack[:len(sccStack)-1]
						onStack[w] = false
						scc = append(scc, w)
						if w == frame.nodeID {
							break
						}
					}
					if len(scc) > 1 || hasSelfLoop(g, scc[0]) {
						sccs = append(sccs, scc)
					}
				}
				callStack = callStack[:len(callStack)-1]
			}
		}
	}

	for _, node := range g.Nodes() {
		if _, visited := nodeIndex[node.ID]; !visited {
			strongConnect(node.ID)
		}
	}

	cycles := make([]Cycle, 0, len(sccs))
	distinct := make(map[string]struct{})
	for _, scc := range sccs {
		// Tarjan pops the component in reverse discovery order; restore
		// cycle order before reporting.
		reverse(scc)
		for _, id := range scc {
			distinct[id] = struct{}{}
		}
		cycles = append(cycles, Cycle{NodeIDs: scc, Length: len(scc)})
	}

	return CycleReport{
		HasCycles: len(cycles) > 0,
		Cycles:    cycles,
		Stats: CycleStats{
			CyclesFound:   len(cycles),
			NodesInCycles: len(distinct),
			DetectionTime: time.Since(start),
		},
	}
}

// hasSelfLoop reports whether a node carries an edge to itself.
func hasSelfLoop(g *Graph, id string) bool {
	for _, e := range g.outgoing[id] {
		if e.TargetID == id {
			return true
		}
	}
	return false
}

// reverse flips a string slice in place.
func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
