// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ingest decodes candidate documents produced by external
// collectors and assembles them into scored dependency graphs.
//
// A candidate document is the JSON handoff format between language- or
// tool-specific parsers (Terraform, Terragrunt, Kubernetes, Helm) and
// this engine. The document carries node and edge candidates plus the
// raw evidence backing each edge; the assembler validates the document,
// scores the evidence, and emits an immutable graph.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DocumentVersion is the only candidate document version this engine
// accepts.
const DocumentVersion = 1

// LocationCandidate is a source position inside a collected file.
type LocationCandidate struct {
	File        string `json:"file" validate:"required"`
	StartLine   int    `json:"startLine" validate:"gte=0"`
	EndLine     int    `json:"endLine" validate:"gte=0"`
	StartColumn int    `json:"startColumn,omitempty" validate:"gte=0"`
	EndColumn   int    `json:"endColumn,omitempty" validate:"gte=0"`
}

// EvidenceCandidate is one observation supporting an edge candidate.
// Category, when set, overrides the category the evidence type implies;
// unrecognized names classify as unknown and weigh like heuristics.
type EvidenceCandidate struct {
	Type        string             `json:"type" validate:"required"`
	Description string             `json:"description" validate:"required"`
	Category    string             `json:"category,omitempty"`
	Confidence  int                `json:"confidence" validate:"gte=0,lte=100"`
	Location    *LocationCandidate `json:"location,omitempty"`
	Method      string             `json:"method,omitempty"`
	Raw         map[string]any     `json:"raw,omitempty"`
}

// NodeCandidate is an infrastructure entity reported by a collector.
type NodeCandidate struct {
	ID       string             `json:"id" validate:"required"`
	Type     string             `json:"type" validate:"required"`
	Name     string             `json:"name" validate:"required"`
	Location *LocationCandidate `json:"location,omitempty"`
	Metadata map[string]any     `json:"metadata,omitempty"`
}

// EdgeCandidate is a proposed relationship between two node candidates.
// Confidence is not supplied by the collector; the assembler derives it
// from the attached evidence.
type EdgeCandidate struct {
	Source    string              `json:"source" validate:"required"`
	Target    string              `json:"target" validate:"required"`
	Type      string              `json:"type" validate:"required"`
	Label     string              `json:"label,omitempty"`
	Implicit  bool                `json:"implicit,omitempty"`
	Attribute string              `json:"attribute,omitempty"`
	Evidence  []EvidenceCandidate `json:"evidence,omitempty" validate:"dive"`
}

// Document is a complete collector handoff.
type Document struct {
	Version     int             `json:"version" validate:"required"`
	GraphID     string          `json:"graphId,omitempty"`
	SourceFiles []string        `json:"sourceFiles,omitempty"`
	Nodes       []NodeCandidate `json:"nodes" validate:"required,min=1,dive"`
	Edges       []EdgeCandidate `json:"edges,omitempty" validate:"dive"`
}

// DecodeDocument reads a candidate document from a stream.
//
// Errors:
//   - malformed JSON
//   - unknown top-level fields (collector version skew surfaces here)
func DecodeDocument(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding candidate document: %w", err)
	}
	return &doc, nil
}

// LoadDocument reads a candidate document from a file path.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening candidate document: %w", err)
	}
	defer f.Close()

	doc, err := DecodeDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
