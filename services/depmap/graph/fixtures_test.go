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
	"testing"

	"github.com/stretchr/testify/require"
)

// tfNode creates a Terraform resource node for tests.
func tfNode(id, name string) *Node {
	return &Node{
		ID:   id,
		Type: NodeTypeTerraformResource,
		Name: name,
		Location: Location{
			File:      "main.tf",
			StartLine: 1,
			EndLine:   5,
		},
	}
}

// buildChain builds a linear graph a -> b -> c -> ... where each edge is
// a references edge. IDs double as names.
func buildChain(t *testing.T, ids ...string) *Graph {
	t.Helper()

	b := NewBuilder()
	for _, id := range ids {
		require.NoError(t, b.AddNode(tfNode(id, id)))
	}
	for i := 0; i+1 < len(ids); i++ {
		_, err := b.AddEdgeByIDs(ids[i], ids[i+1], EdgeTypeReferences)
		require.NoError(t, err)
	}
	return b.Build(context.Background())
}

// buildEdges builds a graph from explicit node IDs and [source, target]
// pairs, all with references edges.
func buildEdges(t *testing.T, ids []string, pairs [][2]string) *Graph {
	t.Helper()

	b := NewBuilder()
	for _, id := range ids {
		require.NoError(t, b.AddNode(tfNode(id, id)))
	}
	for _, p := range pairs {
		_, err := b.AddEdgeByIDs(p[0], p[1], EdgeTypeReferences)
		require.NoError(t, err)
	}
	return b.Build(context.Background())
}

// nodeIDs extracts the IDs from a node slice.
func nodeIDs(nodes []*Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}
