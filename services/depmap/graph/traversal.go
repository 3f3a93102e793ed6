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

// TraversalOptions configures Downstream and Upstream queries.
type TraversalOptions struct {
	// MaxDepth bounds the traversal to that many hops from the start
	// node. Zero means unbounded.
	MaxDepth int

	// IncludeStart includes the start node itself in the result set.
	IncludeStart bool

	// EdgeTypes, when non-empty, restricts traversal to edges of the
	// given types.
	EdgeTypes []EdgeType
}

// TraversalOption is a functional option for configuring traversals.
type TraversalOption func(*TraversalOptions)

// WithMaxDepth bounds the traversal depth. Non-positive values mean
// unbounded.
func WithMaxDepth(d int) TraversalOption {
	return func(o *TraversalOptions) {
		if d < 0 {
			d = 0
		}
		o.MaxDepth = d
	}
}

// WithIncludeStart includes the start node in the result.
func WithIncludeStart(v bool) TraversalOption {
	return func(o *TraversalOptions) {
		o.IncludeStart = v
	}
}

// WithEdgeTypes restricts traversal to the given edge types.
func WithEdgeTypes(types ...EdgeType) TraversalOption {
	return func(o *TraversalOptions) {
		o.EdgeTypes = types
	}
}

// applyTraversalOptions applies functional options over defaults.
func applyTraversalOptions(opts []TraversalOption) TraversalOptions {
	var options TraversalOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Path is one traversal path from a start node to a visited node.
type Path struct {
	// StartNodeID is the node the traversal started from.
	StartNodeID string

	// NodeIDs lists the nodes along the path, start first.
	NodeIDs []string

	// Length is the number of edges in the path (len(NodeIDs)-1).
	Length int
}

// TraversalStats summarizes a traversal run.
type TraversalStats struct {
	// NodesVisited is the number of nodes in the result set.
	NodesVisited int

	// MaxDepthReached is the deepest hop count observed.
	MaxDepthReached int
}

// TraversalResult is the outcome of Downstream or Upstream.
type TraversalResult struct {
	// Nodes are the visited nodes in breadth-first discovery order.
	Nodes []*Node

	// Edges are the edges traversed to reach the visited nodes.
	Edges []*Edge

	// Paths records one path per visited node.
	Paths []Path

	// Stats summarizes the run.
	Stats TraversalStats
}

// Downstream explores the nodes that depend on startID, transitively.
//
// Description:
//
//	Follows edges backward (incoming edges of each node): an edge
//	a -> b means a depends on b, so everything upstream-pointing INTO
//	startID is its downstream blast radius. A missing startID yields an
//	empty result, not an error; the absence of a node is a valid query
//	outcome.
//
//	Time complexity: O(V + E).
func Downstream(ctx context.Context, g *Graph, startID string, opts ...TraversalOption) *TraversalResult {
	ctx, span := startQuerySpan(ctx, "Downstream", startID)
	defer span.End()
	start := time.Now()

	result := traverse(g, startID, applyTraversalOptions(opts), func(id string) []*Edge {
		return g.incoming[id]
	}, func(e *Edge) string {
		return e.SourceID
	})

	recordQueryMetrics(ctx, "downstream", time.Since(start))
	return result
}

// Upstream explores the nodes that startID depends on, transitively.
//
// Description:
//
//	Symmetric to Downstream, following outgoing edges toward the
//	dependencies of the start node.
func Upstream(ctx context.Context, g *Graph, startID string, opts ...TraversalOption) *TraversalResult {
	ctx, span := startQuerySpan(ctx, "Upstream", startID)
	defer span.End()
	start := time.Now()

	result := traverse(g, startID, applyTraversalOptions(opts), func(id string) []*Edge {
		return g.outgoing[id]
	}, func(e *Edge) string {
		return e.TargetID
	})

	recordQueryMetrics(ctx, "upstream", time.Since(start))
	return result
}

// traverse runs a bounded BFS from startID. edgesOf yields candidate edges
// for a node and neighborOf yields the far endpoint of an edge, so the same
// walk serves both directions.
func traverse(g *Graph, startID string, opts TraversalOptions, edgesOf func(string) []*Edge, neighborOf func(*Edge) string) *TraversalResult {
	result := &TraversalResult{
		Nodes: make([]*Node, 0),
		Edges: make([]*Edge, 0),
		Paths: make([]Path, 0),
	}

	startNode, ok := g.Node(startID)
	if !ok {
		return result
	}

	typeFilter := make(map[EdgeType]bool, len(opts.EdgeTypes))
	for _, t := range opts.EdgeTypes {
		typeFilter[t] = true
	}

	type visit struct {
		id    string
		depth int
	}

	parent := make(map[string]string)
	depth := map[string]int{startID: 0}
	queue := []visit{{id: startID}}

	if opts.IncludeStart {
		result.Nodes = append(result.Nodes, startNode)
		result.Paths = append(result.Paths, Path{
			StartNodeID: startID,
			NodeIDs:     []string{startID},
			Length:      0,
		})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if opts.MaxDepth > 0 && current.depth >= opts.MaxDepth {
			continue
		}

		for _, e := range edgesOf(current.id) {
			if len(typeFilter) > 0 && !typeFilter[e.Type] {
				continue
			}

			next := neighborOf(e)
			if _, seen := depth[next]; seen {
				continue
			}
			node, exists := g.Node(next)
			if !exists {
				continue
			}

			depth[next] = current.depth + 1
			parent[next] = current.id
			queue = append(queue, visit{id: next, depth: current.depth + 1})

			result.Nodes = append(result.Nodes, node)
			result.Edges = append(result.Edges, e)
			result.Paths = append(result.Paths, buildPath(startID, next, parent))

			if current.depth+1 > result.Stats.MaxDepthReached {
				result.Stats.MaxDepthReached = current.depth + 1
			}
		}
	}

	result.Stats.NodesVisited = len(result.Nodes)
	return result
}

// buildPath reconstructs the path from startID to nodeID via parent links.
func buildPath(startID, nodeID string, parent map[string]string) Path {
	ids := []string{nodeID}
	for current := nodeID; current != startID; {
		current = parent[current]
		ids = append(ids, current)
	}
	reverse(ids)
	return Path{
		StartNodeID: startID,
		NodeIDs:     ids,
		Length:      len(ids) - 1,
	}
}

// ShortestPath finds an unweighted shortest path from sourceID to targetID
// along edge direction.
//
// Description:
//
//	Plain BFS. Returns nil when either endpoint is absent or no path
//	exists; a query on a disconnected pair is a valid outcome, not an
//	error. When sourceID == targetID the result is a zero-length path
//	containing just that node.
//
//	Time complexity: O(V + E).
func ShortestPath(ctx context.Context, g *Graph, sourceID, targetID string) *Path {
	ctx, span := startQuerySpan(ctx, "ShortestPath", sourceID)
	defer span.End()
	start := time.Now()
	defer func() {
		recordQueryMetrics(ctx, "shortest_path", time.Since(start))
	}()

	if !g.HasNode(sourceID) || !g.HasNode(targetID) {
		return nil
	}
	if sourceID == targetID {
		return &Path{
			StartNodeID: sourceID,
			NodeIDs:     []string{sourceID},
			Length:      0,
		}
	}

	parent := make(map[string]string)
	visited := map[string]bool{sourceID: true}
	queue := []string{sourceID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range g.outgoing[current] {
			next := e.TargetID
			if visited[next] || !g.HasNode(next) {
				continue
			}
			visited[next] = true
			parent[next] = current

			if next == targetID {
				path := buildPath(sourceID, targetID, parent)
				return &path
			}
			queue = append(queue, next)
		}
	}

	return nil
}
