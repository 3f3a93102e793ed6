// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	e := New(TypeDependsOnDirective, "explicit depends_on entry", 100)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, CategoryExplicit, e.Category)
	assert.Equal(t, 100, e.Confidence)
	assert.False(t, e.CollectedAt.IsZero())

	// IDs are unique per observation.
	assert.NotEqual(t, e.ID, New(TypeDependsOnDirective, "again", 100).ID)
}

func TestNew_ClampsConfidence(t *testing.T) {
	assert.Equal(t, 100, New(TypeInterpolation, "x", 400).Confidence)
	assert.Equal(t, 0, New(TypeInterpolation, "x", -5).Confidence)
}

func TestType_DefaultCategory(t *testing.T) {
	tests := []struct {
		typ  Type
		want Category
	}{
		{TypeExplicitReference, CategoryExplicit},
		{TypeDependsOnDirective, CategoryExplicit},
		{TypeInterpolation, CategorySyntax},
		{TypeModuleSource, CategorySemantic},
		{TypeNamespaceMatch, CategoryStructural},
		{TypeNamingConvention, CategoryHeuristic},
		{TypeFileProximity, CategoryHeuristic},
		{TypeUnknown, CategoryUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.DefaultCategory(), tt.typ.String())
	}
}

func TestNewCollection_Empty(t *testing.T) {
	c := NewCollection(nil)

	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.AggregatedConfidence)
	assert.Nil(t, c.Primary)
	assert.Equal(t, 0, c.Categories())
	assert.False(t, c.AllHeuristic())
	assert.False(t, c.HasExplicit())
}

func TestNewCollection_Aggregation(t *testing.T) {
	items := []Evidence{
		New(TypeDependsOnDirective, "depends_on", 100),
		New(TypeInterpolation, "interpolated attr", 90),
		New(TypeNamingConvention, "matching names", 40),
	}

	c := NewCollection(items)
	assert.Equal(t, 77, c.AggregatedConfidence) // round(230/3)
	require.NotNil(t, c.Primary)
	assert.Equal(t, TypeDependsOnDirective, c.Primary.Type)
	assert.Equal(t, 3, c.Categories())
	assert.True(t, c.HasExplicit())
	assert.False(t, c.AllHeuristic())
	assert.Equal(t, 1, c.CountByType[TypeInterpolation])
	assert.Equal(t, 1, c.CountByCategory[CategoryHeuristic])
}

func TestNewCollection_PrimaryTieEarliest(t *testing.T) {
	first := New(TypeInterpolation, "first", 80)
	second := New(TypeVariableUsage, "second", 80)

	c := NewCollection([]Evidence{first, second})
	require.NotNil(t, c.Primary)
	assert.Equal(t, first.ID, c.Primary.ID)
}

func TestCollection_AllHeuristic(t *testing.T) {
	c := NewCollection([]Evidence{
		New(TypeNamingConvention, "name prefix", 40),
		New(TypeFileProximity, "same directory", 30),
	})
	assert.True(t, c.AllHeuristic())
	assert.False(t, c.HasExplicit())
}

func TestParseType_RoundTrip(t *testing.T) {
	for typ := TypeUnknown; typ < NumTypes; typ++ {
		assert.Equal(t, typ, ParseType(typ.String()), "type %d", typ)
	}
	assert.Equal(t, TypeUnknown, ParseType("astrology"))
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryExplicit, ParseCategory("explicit"))
	assert.Equal(t, CategoryHeuristic, ParseCategory("heuristic"))
	assert.Equal(t, CategoryUnknown, ParseCategory("vibes"))
}
