// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the typed infrastructure dependency graph and its
// operations: incremental construction, validation, cycle detection,
// traversal, impact analysis, subgraph extraction, and multi-graph merge.
//
// Nodes represent infrastructure constructs (Terraform resources and modules,
// Kubernetes objects, Helm releases, ...) and edges represent directed,
// confidence-bearing relationships between them. Edge confidence originates
// from the scoring package; the graph carries it but never computes it.
//
// # Lifecycle
//
// A graph is an immutable snapshot produced by a Builder:
//
//  1. Create with NewBuilder()
//  2. Accumulate with AddNode() / AddEdge() / RemoveNode() / RemoveEdge()
//  3. Call Build() to materialize a frozen *Graph
//  4. Query the snapshot with Validate(), Downstream(), AnalyzeImpact(), etc.
//
// The builder remains reusable after Build(); the returned snapshot never
// observes later mutations.
//
// # Thread Safety
//
// A Builder is NOT safe for concurrent use; each scan owns its own builder.
// A built *Graph is read-only and safe for concurrent readers without
// synchronization.
package graph

import "errors"

// Sentinel errors for graph construction and merge operations.
var (
	// ErrInvalidNode is returned when adding a nil node or a node with a
	// missing/empty ID while validation is enabled.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidEdge is returned when adding a nil edge or an edge with a
	// missing source or target ID.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrDanglingSource is returned when an edge's source node is not
	// present in the builder's node set and validation is enabled.
	ErrDanglingSource = errors.New("edge source node not found")

	// ErrDanglingTarget is returned when an edge's target node is not
	// present in the builder's node set and validation is enabled.
	ErrDanglingTarget = errors.New("edge target node not found")

	// ErrMaxNodesExceeded is returned when the builder has reached its
	// configured maximum node capacity.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when a source node has reached the
	// configured per-node outgoing edge capacity.
	ErrMaxEdgesExceeded = errors.New("maximum edges per node exceeded")

	// ErrNoGraphs is returned when Merge is called with no input graphs.
	ErrNoGraphs = errors.New("no graphs to merge")
)
