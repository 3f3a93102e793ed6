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
	"fmt"
)

// ConflictStrategy resolves node ID collisions during a merge.
type ConflictStrategy string

const (
	// ConflictKeepFirst keeps the node from the earliest input graph.
	ConflictKeepFirst ConflictStrategy = "keep-first"

	// ConflictKeepLast keeps the node from the latest input graph.
	ConflictKeepLast ConflictStrategy = "keep-last"

	// ConflictMerge shallow-merges metadata; later values win per key.
	ConflictMerge ConflictStrategy = "merge"

	// ConflictError fails the merge with a NodeConflictError.
	ConflictError ConflictStrategy = "error"
)

// NodeConflictError reports a node ID present in more than one input graph
// under the "error" strategy.
type NodeConflictError struct {
	// NodeID is the colliding node ID.
	NodeID string

	// GraphIndex is the index of the later input graph carrying the
	// collision.
	GraphIndex int
}

// Error implements the error interface.
func (e *NodeConflictError) Error() string {
	return fmt.Sprintf("node conflict: id %q already merged (input graph %d)", e.NodeID, e.GraphIndex)
}

// MergeOptions configures Merge.
type MergeOptions struct {
	// Strategy resolves node ID collisions. Default: keep-first.
	Strategy ConflictStrategy

	// NodeIDPrefix, when set, namespaces every node and edge ID with a
	// per-input-graph index ("<prefix><index>:<id>") so independently
	// built subgraphs never collide accidentally.
	NodeIDPrefix string
}

// Merge unions multiple snapshots into one new graph.
//
// Description:
//
//	Node sets are unioned with collisions resolved by the configured
//	strategy. Edge lists are concatenated without deduplication, so the
//	merged edge count is the sum of the inputs. Metadata is recomputed
//	for the merged snapshot.
//
// Errors:
//
//	ErrNoGraphs - input slice is empty
//	*NodeConflictError - collision under the "error" strategy
func Merge(ctx context.Context, graphs []*Graph, opts MergeOptions) (*Graph, error) {
	if len(graphs) == 0 {
		return nil, ErrNoGraphs
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = ConflictKeepFirst
	}

	b := NewBuilder(
		WithValidateOnAdd(false),
		WithAllowDuplicateEdges(true),
		WithMaxNodes(0),
		WithMaxEdgesPerNode(0),
	)

	merged := make(map[string]*Node)
	order := make([]string, 0)

	for gi, g := range graphs {
		for _, n := range g.Nodes() {
			id := opts.prefixed(gi, n.ID)

			existing, collides := merged[id]
			if !collides {
				node := n
				if id != n.ID {
					node = n.Clone()
					node.ID = id
				}
				merged[id] = node
				order = append(order, id)
				continue
			}

			switch strategy {
			case ConflictKeepFirst:
				// Earliest graph wins; nothing to do.
			case ConflictKeepLast:
				node := n.Clone()
				node.ID = id
				merged[id] = node
			case ConflictMerge:
				node := n.Clone()
				node.ID = id
				node.Metadata = mergeMetadata(existing.Metadata, n.Metadata)
				merged[id] = node
			case ConflictError:
				return nil, &NodeConflictError{NodeID: id, GraphIndex: gi}
			default:
				return nil, fmt.Errorf("unknown conflict strategy %q", strategy)
			}
		}
	}

	for _, id := range order {
		_ = b.AddNode(merged[id])
	}

	for gi, g := range graphs {
		for _, e := range g.Edges() {
			edge := *e
			edge.ID = opts.prefixed(gi, e.ID)
			edge.SourceID = opts.prefixed(gi, e.SourceID)
			edge.TargetID = opts.prefixed(gi, e.TargetID)
			if err := b.AddEdge(&edge); err != nil {
				return nil, err
			}
		}
	}

	return b.Build(ctx), nil
}

// prefixed namespaces an ID with the per-input-graph index when a prefix is
// configured.
func (o MergeOptions) prefixed(graphIndex int, id string) string {
	if o.NodeIDPrefix == "" {
		return id
	}
	return fmt.Sprintf("%s%d:%s", o.NodeIDPrefix, graphIndex, id)
}
