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
	"time"
)

// SubgraphOptions selects the slice of a graph to extract.
type SubgraphOptions struct {
	// NodeIDs seeds the selection with explicit node IDs. Unknown IDs
	// are ignored.
	NodeIDs []string

	// NodeTypes seeds the selection with every node of the given types.
	NodeTypes []NodeType

	// EdgeTypes, when non-empty, restricts which edges the subgraph
	// carries.
	EdgeTypes []EdgeType

	// IncludeConnected expands the seed set to neighbors within
	// MaxDistance hops, both upstream and downstream.
	IncludeConnected bool

	// MaxDistance is the neighbor expansion radius. Values below 1 are
	// treated as 1.
	MaxDistance int
}

// ExtractSubgraph derives a new snapshot containing only the selected nodes
// and the edges between them.
//
// Description:
//
//	Seeds the node set from NodeIDs and NodeTypes, optionally expands to
//	connected neighbors, then keeps every edge whose type passes the
//	filter and whose endpoints are both selected. The result is a fresh
//	immutable Graph with recomputed metadata.
//
// Thread Safety: Safe for concurrent use on a built snapshot.
func ExtractSubgraph(ctx context.Context, g *Graph, opts SubgraphOptions) *Graph {
	ctx, span := startQuerySpan(ctx, "ExtractSubgraph", g.ID)
	defer span.End()
	start := time.Now()
	defer func() {
		recordQueryMetrics(ctx, "subgraph", time.Since(start))
	}()

	selected := make(map[string]*Node)

	for _, id := range opts.NodeIDs {
		if n, ok := g.Node(id); ok {
			selected[id] = n
		}
	}

	if len(opts.NodeTypes) > 0 {
		wanted := make(map[NodeType]bool, len(opts.NodeTypes))
		for _, t := range opts.NodeTypes {
			wanted[t] = true
		}
		for _, n := range g.Nodes() {
			if wanted[n.Type] {
				selected[n.ID] = n
			}
		}
	}

	if opts.IncludeConnected {
		expandNeighbors(g, selected, opts.MaxDistance)
	}

	edgeFilter := make(map[EdgeType]bool, len(opts.EdgeTypes))
	for _, t := range opts.EdgeTypes {
		edgeFilter[t] = true
	}

	b := NewBuilder(
		WithGraphID(g.ID+"/subgraph"),
		WithAllowDuplicateEdges(true),
	)
	for _, n := range selected {
		// Snapshot nodes are immutable; sharing pointers is safe.
		_ = b.AddNode(n)
	}
	for _, e := range g.edges {
		if len(edgeFilter) > 0 && !edgeFilter[e.Type] {
			continue
		}
		if _, ok := selected[e.SourceID]; !ok {
			continue
		}
		if _, ok := selected[e.TargetID]; !ok {
			continue
		}
		_ = b.AddEdge(e)
	}

	return b.Build(ctx)
}

// expandNeighbors grows the selection by BFS over both edge directions up
// to maxDistance hops.
func expandNeighbors(g *Graph, selected map[string]*Node, maxDistance int) {
	if maxDistance < 1 {
		maxDistance = 1
	}

	type visit struct {
		id    string
		depth int
	}

	queue := make([]visit, 0, len(selected))
	for id := range selected {
		queue = append(queue, visit{id: id})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDistance {
			continue
		}

		neighbors := make([]string, 0)
		for _, e := range g.outgoing[current.id] {
			neighbors = append(neighbors, e.TargetID)
		}
		for _, e := range g.incoming[current.id] {
			neighbors = append(neighbors, e.SourceID)
		}

		for _, id := range neighbors {
			if _, ok := selected[id]; ok {
				continue
			}
			n, exists := g.Node(id)
			if !exists {
				continue
			}
			selected[id] = n
			queue = append(queue, visit{id: id, depth: current.depth + 1})
		}
	}
}
