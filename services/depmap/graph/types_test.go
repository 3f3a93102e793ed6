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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeType_ParseUnknown(t *testing.T) {
	assert.Equal(t, NodeTypeTerraformResource, ParseNodeType("terraform_resource"))
	assert.Equal(t, NodeTypeK8sDeployment, ParseNodeType("k8s_deployment"))
	assert.Equal(t, NodeTypeUnknown, ParseNodeType("martian_lander"))
	assert.Equal(t, "unknown", NodeType(250).String())
}

func TestEdgeType_ParseUnknown(t *testing.T) {
	assert.Equal(t, EdgeTypeDependsOn, ParseEdgeType("depends_on"))
	assert.Equal(t, EdgeTypeUnknown, ParseEdgeType("telepathy"))
}

// Every declared type must survive a String/Parse round trip; a missing
// map entry here means a new enum value was added without wiring it.
func TestTypeNames_Complete(t *testing.T) {
	for nt := NodeTypeUnknown; nt < NumNodeTypes; nt++ {
		assert.Equal(t, nt, ParseNodeType(nt.String()), "node type %d", nt)
	}
	for et := EdgeTypeUnknown; et < NumEdgeTypes; et++ {
		assert.Equal(t, et, ParseEdgeType(et.String()), "edge type %d", et)
	}
}

func TestMetadataValue_Equal(t *testing.T) {
	assert.True(t, StringValue("x").Equal(StringValue("x")))
	assert.False(t, StringValue("x").Equal(StringValue("y")))
	assert.False(t, StringValue("1").Equal(NumberValue(1)))
	assert.True(t, NumberValue(1.5).Equal(NumberValue(1.5)))
	assert.True(t, BoolValue(true).Equal(BoolValue(true)))
	assert.True(t, StringListValue("a", "b").Equal(StringListValue("a", "b")))
	assert.False(t, StringListValue("a", "b").Equal(StringListValue("b", "a")))
}

func TestMetadata_KeysSorted(t *testing.T) {
	md := Metadata{
		"zone":   StringValue("us-east-1a"),
		"cidr":   StringValue("10.0.0.0/16"),
		"public": BoolValue(true),
	}
	assert.Equal(t, []string{"cidr", "public", "zone"}, md.Keys())
}

func TestMergeMetadata_LaterWins(t *testing.T) {
	a := Metadata{"env": StringValue("dev"), "team": StringValue("net")}
	b := Metadata{"env": StringValue("prod")}

	merged := mergeMetadata(a, b)
	assert.Equal(t, StringValue("prod"), merged["env"])
	assert.Equal(t, StringValue("net"), merged["team"])

	// Inputs must not be mutated.
	assert.Equal(t, StringValue("dev"), a["env"])
}

func TestNode_CloneIsDeep(t *testing.T) {
	n := tfNode("aws_vpc.main", "main")
	n.Metadata = Metadata{"cidr": StringValue("10.0.0.0/16")}
	n.Resource = &ResourceInfo{Provider: "aws", ResourceType: "aws_vpc"}

	c := n.Clone()
	require.NotSame(t, n, c)

	c.Metadata["cidr"] = StringValue("changed")
	c.Resource.Provider = "gcp"

	assert.Equal(t, StringValue("10.0.0.0/16"), n.Metadata["cidr"])
	assert.Equal(t, "aws", n.Resource.Provider)
}
