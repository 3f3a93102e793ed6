// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/evidence"
	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/graph"
	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/scoring"
)

// Result is an assembled, scored graph.
type Result struct {
	// Graph is the immutable dependency graph built from the document.
	Graph *graph.Graph

	// Scores maps edge ID to the confidence score derived from that
	// edge's evidence. Every edge in Graph has an entry.
	Scores map[string]scoring.Score
}

// Assembler turns candidate documents into scored graphs.
//
// Thread Safety: Safe for concurrent use; each Assemble call builds
// independent state.
type Assembler struct {
	validate    *validator.Validate
	scorer      *scoring.Engine
	rules       []scoring.Rule
	builderOpts []graph.BuilderOption
	logger      *slog.Logger
}

// AssemblerOption is a functional option for configuring Assembler.
type AssemblerOption func(*Assembler)

// WithScoringEngine overrides the scoring engine.
func WithScoringEngine(e *scoring.Engine) AssemblerOption {
	return func(a *Assembler) {
		if e != nil {
			a.scorer = e
		}
	}
}

// WithRules supplies custom scoring rules applied to every edge's
// evidence.
func WithRules(rules []scoring.Rule) AssemblerOption {
	return func(a *Assembler) {
		a.rules = rules
	}
}

// WithBuilderOptions passes extra options to the graph builder, e.g.
// capacity limits.
func WithBuilderOptions(opts ...graph.BuilderOption) AssemblerOption {
	return func(a *Assembler) {
		a.builderOpts = append(a.builderOpts, opts...)
	}
}

// WithAssemblerLogger overrides the logger.
func WithAssemblerLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler creates an assembler with struct-tag validation and a
// default scoring engine.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		scorer:   scoring.NewEngine(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble validates a candidate document and builds a scored graph
// from it.
//
// Description:
//
//	Nodes are added first, then edges. Edge evidence is scored and the
//	resulting value becomes the edge's confidence. Edges whose evidence
//	is empty still score (0, uncertain); collectors that are sure of an
//	edge must say so with evidence. Dangling edges fail assembly since
//	they indicate a collector bug, not a property of the infrastructure.
//
// Errors:
//   - unsupported document version
//   - struct validation failures (missing IDs, out-of-range confidences)
//   - graph construction failures (dangling edges, capacity limits)
func (a *Assembler) Assemble(ctx context.Context, doc *Document) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil candidate document")
	}
	if doc.Version != DocumentVersion {
		return nil, fmt.Errorf("unsupported document version %d (want %d)", doc.Version, DocumentVersion)
	}
	if err := a.validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("validating candidate document: %w", err)
	}

	builderOpts := make([]graph.BuilderOption, 0, len(a.builderOpts)+1)
	builderOpts = append(builderOpts, a.builderOpts...)
	if doc.GraphID != "" {
		builderOpts = append(builderOpts, graph.WithGraphID(doc.GraphID))
	}
	b := graph.NewBuilder(builderOpts...)
	b.AddSourceFiles(doc.SourceFiles...)

	for i := range doc.Nodes {
		node, err := a.buildNode(&doc.Nodes[i])
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", doc.Nodes[i].ID, err)
		}
		if err := b.AddNode(node); err != nil {
			return nil, fmt.Errorf("node %q: %w", node.ID, err)
		}
	}

	scores := make(map[string]scoring.Score, len(doc.Edges))
	for i := range doc.Edges {
		cand := &doc.Edges[i]
		items := a.buildEvidence(cand)
		score := a.scorer.Calculate(ctx, items, a.rules...)

		edge := &graph.Edge{
			SourceID: cand.Source,
			TargetID: cand.Target,
			Type:     graph.ParseEdgeType(cand.Type),
			Label:    cand.Label,
			Metadata: graph.EdgeMetadata{
				Implicit:   cand.Implicit,
				Confidence: score.Value,
				Attribute:  cand.Attribute,
			},
		}
		if err := b.AddEdge(edge); err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", cand.Source, cand.Target, err)
		}
		scores[edge.ID] = score
	}

	g := b.Build(ctx)
	a.logger.Debug("assembled candidate document",
		"graph_id", g.ID,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
	)
	return &Result{Graph: g, Scores: scores}, nil
}

func (a *Assembler) buildNode(cand *NodeCandidate) (*graph.Node, error) {
	t := graph.ParseNodeType(cand.Type)
	if t == graph.NodeTypeUnknown && cand.Type != t.String() {
		a.logger.Debug("unrecognized node type retained as unknown",
			"node_id", cand.ID, "type", cand.Type)
	}

	node := &graph.Node{
		ID:   cand.ID,
		Type: t,
		Name: cand.Name,
	}
	if cand.Location != nil {
		node.Location = toLocation(cand.Location)
	}
	if len(cand.Metadata) > 0 {
		md := make(graph.Metadata, len(cand.Metadata))
		for k, v := range cand.Metadata {
			mv, err := toMetadataValue(v)
			if err != nil {
				return nil, fmt.Errorf("metadata key %q: %w", k, err)
			}
			md[k] = mv
		}
		node.Metadata = md
	}
	return node, nil
}

func (a *Assembler) buildEvidence(cand *EdgeCandidate) []evidence.Evidence {
	if len(cand.Evidence) == 0 {
		return nil
	}
	items := make([]evidence.Evidence, 0, len(cand.Evidence))
	for i := range cand.Evidence {
		ec := &cand.Evidence[i]
		item := evidence.New(evidence.ParseType(ec.Type), ec.Description, ec.Confidence)
		if ec.Category != "" {
			item.Category = evidence.ParseCategory(ec.Category)
		}
		if ec.Location != nil {
			item.Location = toLocation(ec.Location)
		}
		item.Method = ec.Method
		item.Raw = ec.Raw
		item.CollectedAt = time.Now()
		items = append(items, item)
	}
	return items
}

func toLocation(lc *LocationCandidate) graph.Location {
	return graph.Location{
		File:        lc.File,
		StartLine:   lc.StartLine,
		EndLine:     lc.EndLine,
		StartColumn: lc.StartColumn,
		EndColumn:   lc.EndColumn,
	}
}

// toMetadataValue maps JSON-decoded values onto the graph metadata
// union. Lists must be homogeneous strings.
func toMetadataValue(v any) (graph.MetadataValue, error) {
	switch t := v.(type) {
	case string:
		return graph.StringValue(t), nil
	case bool:
		return graph.BoolValue(t), nil
	case float64:
		return graph.NumberValue(t), nil
	case int:
		return graph.NumberValue(float64(t)), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return graph.MetadataValue{}, fmt.Errorf("list element is %T, want string", e)
			}
			items = append(items, s)
		}
		return graph.StringListValue(items...), nil
	case []string:
		return graph.StringListValue(t...), nil
	default:
		return graph.MetadataValue{}, fmt.Errorf("unsupported metadata type %T", v)
	}
}
