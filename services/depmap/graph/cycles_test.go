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
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCycles_Acyclic(t *testing.T) {
	g := buildChain(t, "a", "b", "c", "d")

	report := DetectCycles(g)
	assert.False(t, report.HasCycles)
	assert.Empty(t, report.Cycles)
	assert.Equal(t, 0, report.Stats.CyclesFound)
	assert.Equal(t, 0, report.Stats.NodesInCycles)
}

// TestDetectCycles_SecurityGroupTriangle models the classic mutual
// security group reference: a -> b -> c -> a.
func TestDetectCycles_SecurityGroupTriangle(t *testing.T) {
	g := buildEdges(t,
		[]string{"aws_security_group.a", "aws_security_group.b", "aws_security_group.c"},
		[][2]string{
			{"aws_security_group.a", "aws_security_group.b"},
			{"aws_security_group.b", "aws_security_group.c"},
			{"aws_security_group.c", "aws_security_group.a"},
		})

	report := DetectCycles(g)
	require.True(t, report.HasCycles)
	require.Len(t, report.Cycles, 1)
	assert.Equal(t, 3, report.Cycles[0].Length)
	assert.ElementsMatch(t,
		[]string{"aws_security_group.a", "aws_security_group.b", "aws_security_group.c"},
		report.Cycles[0].NodeIDs)
	assert.Equal(t, 1, report.Stats.CyclesFound)
	assert.Equal(t, 3, report.Stats.NodesInCycles)
}

func TestDetectCycles_TwoNodeMutual(t *testing.T) {
	g := buildEdges(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	report := DetectCycles(g)
	require.Len(t, report.Cycles, 1)
	assert.Equal(t, 2, report.Cycles[0].Length)
	assert.ElementsMatch(t, []string{"a", "b"}, report.Cycles[0].NodeIDs)
}

func TestDetectCycles_SelfLoop(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddNode(tfNode("a", "a")))
	_, err := b.AddEdgeByIDs("a", "a", EdgeTypeReferences)
	require.NoError(t, err)
	g := b.Build(context.Background())

	report := DetectCycles(g)
	require.Len(t, report.Cycles, 1)
	assert.Equal(t, []string{"a"}, report.Cycles[0].NodeIDs)
	assert.Equal(t, 1, report.Cycles[0].Length)
}

func TestDetectCycles_MultipleDisjoint(t *testing.T) {
	g := buildEdges(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{
			{"a", "b"}, {"b", "a"}, // cycle 1
			{"c", "d"}, {"d", "c"}, // cycle 2
			{"e", "a"}, // feeder, not in a cycle
		})

	report := DetectCycles(g)
	assert.Equal(t, 2, report.Stats.CyclesFound)
	assert.Equal(t, 4, report.Stats.NodesInCycles)
}

// DetectCycles and HasCycles must always agree.
func TestDetectCycles_AgreesWithHasCycles(t *testing.T) {
	acyclic := buildChain(t, "a", "b", "c")
	cyclic := buildEdges(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	assert.False(t, HasCycles(acyclic))
	assert.False(t, DetectCycles(acyclic).HasCycles)
	assert.True(t, HasCycles(cyclic))
	assert.True(t, DetectCycles(cyclic).HasCycles)
}

// Deep chains must not overflow the stack; the implementation is
// iterative.
func TestDetectCycles_DeepChain(t *testing.T) {
	const depth = 50_000

	b := NewBuilder(WithMaxNodes(0))
	ids := make([]string, depth)
	for i := range ids {
		ids[i] = nodeName(i)
		require.NoError(t, b.AddNode(tfNode(ids[i], ids[i])))
	}
	for i := 0; i+1 < depth; i++ {
		_, err := b.AddEdgeByIDs(ids[i], ids[i+1], EdgeTypeReferences)
		require.NoError(t, err)
	}
	// Close the loop so the whole chain is one SCC.
	_, err := b.AddEdgeByIDs(ids[depth-1], ids[0], EdgeTypeReferences)
	require.NoError(t, err)

	g := b.Build(context.Background())
	report := DetectCycles(g)
	require.Len(t, report.Cycles, 1)
	assert.Equal(t, depth, report.Cycles[0].Length)
}

func nodeName(i int) string {
	return "node_" + strconv.Itoa(i)
}
