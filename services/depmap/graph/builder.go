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
	"sort"
	"time"

	"github.com/google/uuid"
)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// GraphID is the ID assigned to built snapshots. When empty, each
	// Build() generates a fresh random ID.
	GraphID string

	// ValidateOnAdd rejects nodes without an ID and edges whose endpoints
	// are not yet in the node set. Default: true.
	ValidateOnAdd bool

	// AllowDuplicateEdges keeps every added edge regardless of
	// (source, target, type) collisions. When false (the default), edges
	// are deduplicated by that triple and the first one wins.
	AllowDuplicateEdges bool

	// MaxNodes is the maximum number of nodes the builder accepts.
	// Default: DefaultMaxNodes.
	MaxNodes int

	// MaxEdgesPerNode is the maximum number of outgoing edges a single
	// source node may carry. Zero disables the limit.
	// Default: DefaultMaxEdgesPerNode.
	MaxEdgesPerNode int
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		ValidateOnAdd:   true,
		MaxNodes:        DefaultMaxNodes,
		MaxEdgesPerNode: DefaultMaxEdgesPerNode,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithGraphID sets a stable ID for built snapshots.
func WithGraphID(id string) BuilderOption {
	return func(o *BuilderOptions) {
		o.GraphID = id
	}
}

// WithValidateOnAdd toggles add-time validation.
func WithValidateOnAdd(v bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.ValidateOnAdd = v
	}
}

// WithAllowDuplicateEdges toggles (source, target, type) deduplication.
func WithAllowDuplicateEdges(v bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.AllowDuplicateEdges = v
	}
}

// WithMaxNodes sets the maximum number of nodes the builder accepts.
func WithMaxNodes(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxNodes = n
	}
}

// WithMaxEdgesPerNode sets the per-source outgoing edge limit.
func WithMaxEdgesPerNode(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxEdgesPerNode = n
	}
}

// Builder accumulates nodes and edges and materializes immutable Graph
// snapshots.
//
// Thread Safety:
//
//	NOT safe for concurrent use. Each scan owns its own builder.
//
// Determinism:
//
//	Identical add/remove sequences yield identical node and edge sets and
//	identical counts. Only CreatedAt, BuildDuration, and (when no GraphID
//	is configured) the generated snapshot ID vary between runs.
type Builder struct {
	opts BuilderOptions

	nodes    map[string]*Node
	edges    []*Edge
	outCount map[string]int
	dedupe   map[string]struct{}
	files    map[string]struct{}

	startedAt time.Time
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	b := &Builder{opts: options}
	b.Clear()
	return b
}

// Clear empties all builder state. The builder is immediately reusable and
// the build timer restarts.
func (b *Builder) Clear() {
	b.nodes = make(map[string]*Node)
	b.edges = b.edges[:0]
	b.outCount = make(map[string]int)
	b.dedupe = make(map[string]struct{})
	b.files = make(map[string]struct{})
	b.startedAt = time.Now()
}

// AddSourceFiles records files the graph was derived from beyond those
// named by node locations, e.g. scanned files that produced no nodes.
// Empty paths are ignored.
func (b *Builder) AddSourceFiles(paths ...string) {
	for _, p := range paths {
		if p != "" {
			b.files[p] = struct{}{}
		}
	}
}

// NodeCount returns the number of accumulated nodes.
func (b *Builder) NodeCount() int {
	return len(b.nodes)
}

// EdgeCount returns the number of accumulated edges.
func (b *Builder) EdgeCount() int {
	return len(b.edges)
}

// AddNode inserts or replaces a node by ID (last-write-wins).
//
// Errors:
//
//	ErrInvalidNode - node is nil, or has an empty ID with ValidateOnAdd
//	ErrMaxNodesExceeded - builder is at node capacity
func (b *Builder) AddNode(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: node is nil", ErrInvalidNode)
	}
	if b.opts.ValidateOnAdd && n.ID == "" {
		return fmt.Errorf("%w: missing node id", ErrInvalidNode)
	}

	if _, exists := b.nodes[n.ID]; !exists && b.opts.MaxNodes > 0 && len(b.nodes) >= b.opts.MaxNodes {
		return fmt.Errorf("%w: limit %d", ErrMaxNodesExceeded, b.opts.MaxNodes)
	}

	b.nodes[n.ID] = n
	return nil
}

// AddEdge appends a directed edge.
//
// Description:
//
//	With ValidateOnAdd, both endpoints must already be present in the node
//	set. Unless AllowDuplicateEdges is set, edges are deduplicated by
//	(source, target, type); a duplicate add is a silent no-op. Confidence
//	is clamped to [0, 100] so the graph invariant holds regardless of
//	upstream scoring bugs. An empty edge ID is filled in deterministically
//	from source, target, and type.
//
// Errors:
//
//	ErrInvalidEdge - edge is nil or missing an endpoint ID
//	ErrDanglingSource / ErrDanglingTarget - endpoint absent (ValidateOnAdd)
//	ErrMaxEdgesExceeded - source is at its outgoing edge capacity
func (b *Builder) AddEdge(e *Edge) error {
	if e == nil {
		return fmt.Errorf("%w: edge is nil", ErrInvalidEdge)
	}
	if e.SourceID == "" || e.TargetID == "" {
		return fmt.Errorf("%w: missing endpoint id", ErrInvalidEdge)
	}

	if b.opts.ValidateOnAdd {
		if _, ok := b.nodes[e.SourceID]; !ok {
			return fmt.Errorf("%w: %q", ErrDanglingSource, e.SourceID)
		}
		if _, ok := b.nodes[e.TargetID]; !ok {
			return fmt.Errorf("%w: %q", ErrDanglingTarget, e.TargetID)
		}
	}

	if b.opts.MaxEdgesPerNode > 0 && b.outCount[e.SourceID] >= b.opts.MaxEdgesPerNode {
		return fmt.Errorf("%w: %q at limit %d", ErrMaxEdgesExceeded, e.SourceID, b.opts.MaxEdgesPerNode)
	}

	// The dedupe key is registered only after all rejections; a rejected
	// edge must stay addable once the cause clears.
	if !b.opts.AllowDuplicateEdges {
		key := edgeKey(e.SourceID, e.TargetID, e.Type)
		if _, seen := b.dedupe[key]; seen {
			return nil
		}
		b.dedupe[key] = struct{}{}
	}

	if e.ID == "" {
		e.ID = EdgeID(e.SourceID, e.TargetID, e.Type)
	}
	e.Metadata.Confidence = clampConfidence(e.Metadata.Confidence)

	b.edges = append(b.edges, e)
	b.outCount[e.SourceID]++
	return nil
}

// AddEdgeByIDs creates an edge with a deterministic ID and delegates to
// AddEdge. The metadata argument is optional; the first value wins.
//
// Outputs:
//
//	string - The derived edge ID (valid even when an error is returned).
//	error - See AddEdge.
func (b *Builder) AddEdgeByIDs(sourceID, targetID string, t EdgeType, metadata ...EdgeMetadata) (string, error) {
	var md EdgeMetadata
	if len(metadata) > 0 {
		md = metadata[0]
	}

	id := EdgeID(sourceID, targetID, t)
	err := b.AddEdge(&Edge{
		ID:       id,
		SourceID: sourceID,
		TargetID: targetID,
		Type:     t,
		Metadata: md,
	})
	return id, err
}

// EdgeID derives the deterministic edge ID for a (source, target, type)
// triple. Stable across runs so the persistence layer can correlate edges
// between scans.
func EdgeID(sourceID, targetID string, t EdgeType) string {
	return fmt.Sprintf("%s->%s#%s", sourceID, targetID, t)
}

// edgeKey is the deduplication key for a (source, target, type) triple.
func edgeKey(sourceID, targetID string, t EdgeType) string {
	return fmt.Sprintf("%s\x00%s\x00%d", sourceID, targetID, t)
}

// RemoveNode removes a node and cascades removal of every edge touching it.
// Returns whether a node with the given ID was present.
func (b *Builder) RemoveNode(id string) bool {
	if _, ok := b.nodes[id]; !ok {
		return false
	}
	delete(b.nodes, id)
	delete(b.outCount, id)

	kept := b.edges[:0]
	for _, e := range b.edges {
		if e.SourceID == id || e.TargetID == id {
			b.dropDedupe(e)
			if e.SourceID != id {
				b.outCount[e.SourceID]--
			}
			continue
		}
		kept = append(kept, e)
	}
	b.edges = kept
	return true
}

// RemoveEdge removes every edge with the given ID. Returns whether at least
// one was present. Multiple edges share an ID only when duplicates are
// allowed and the caller supplied colliding IDs.
func (b *Builder) RemoveEdge(id string) bool {
	removed := false
	kept := b.edges[:0]
	for _, e := range b.edges {
		if e.ID == id {
			removed = true
			b.dropDedupe(e)
			b.outCount[e.SourceID]--
			continue
		}
		kept = append(kept, e)
	}
	b.edges = kept
	return removed
}

// dropDedupe forgets the dedupe entry for an edge removed from the set, so
// an equivalent edge may be re-added afterwards.
func (b *Builder) dropDedupe(e *Edge) {
	if !b.opts.AllowDuplicateEdges {
		delete(b.dedupe, edgeKey(e.SourceID, e.TargetID, e.Type))
	}
}

// Build materializes an immutable snapshot of the accumulated state.
//
// Description:
//
//	Computes node/edge counts by type, the deduplicated sorted set of
//	source files, and the elapsed build time, then returns a frozen Graph.
//	The builder keeps its state and remains reusable; later mutations are
//	never observed by the returned snapshot.
//
// Inputs:
//
//	ctx - Used for telemetry only; Build itself never blocks.
func (b *Builder) Build(ctx context.Context) *Graph {
	ctx, span := startBuildSpan(ctx, len(b.nodes), len(b.edges))
	defer span.End()

	id := b.opts.GraphID
	if id == "" {
		id = uuid.NewString()
	}

	nodes := make(map[string]*Node, len(b.nodes))
	nodeCounts := make(map[NodeType]int)
	fileSet := make(map[string]struct{}, len(b.files))
	for f := range b.files {
		fileSet[f] = struct{}{}
	}
	for nid, n := range b.nodes {
		nodes[nid] = n
		nodeCounts[n.Type]++
		if n.Location.File != "" {
			fileSet[n.Location.File] = struct{}{}
		}
	}

	files := make([]string, 0, len(fileSet))
	for f := range fileSet {
		files = append(files, f)
	}
	sort.Strings(files)

	edges := make([]*Edge, len(b.edges))
	copy(edges, b.edges)

	edgeCounts := make(map[EdgeType]int)
	outgoing := make(map[string][]*Edge)
	incoming := make(map[string][]*Edge)
	for _, e := range edges {
		edgeCounts[e.Type]++
		outgoing[e.SourceID] = append(outgoing[e.SourceID], e)
		incoming[e.TargetID] = append(incoming[e.TargetID], e)
	}

	duration := time.Since(b.startedAt)
	g := &Graph{
		ID: id,
		Metadata: GraphMetadata{
			CreatedAt:     time.Now(),
			SourceFiles:   files,
			NodeCounts:    nodeCounts,
			EdgeCounts:    edgeCounts,
			BuildDuration: duration,
		},
		nodes:    nodes,
		edges:    edges,
		outgoing: outgoing,
		incoming: incoming,
	}

	setBuildSpanResult(span, len(nodes), len(edges))
	recordBuildMetrics(ctx, duration, len(nodes), len(edges))
	return g
}
