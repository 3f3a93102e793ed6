// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/evidence"
	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/graph"
)

// ruleItem builds an evidence item with a populated location and raw
// payload for field-path tests.
func ruleItem(t *testing.T) evidence.Evidence {
	t.Helper()
	item := evidence.New(evidence.TypeInterpolation, "subnet_id = aws_subnet.public.id", 80)
	item.Method = "hcl_parser"
	item.Location = graph.Location{File: "network/main.tf", StartLine: 42, EndLine: 42}
	item.Raw = map[string]any{
		"attribute": "subnet_id",
		"depth":     3,
	}
	return item
}

func TestConditionHolds_Operators(t *testing.T) {
	re := NewRuleEngine()
	item := ruleItem(t)

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals type", Condition{Field: "type", Operator: OpEquals, Value: "interpolation"}, true},
		{"equals mismatch", Condition{Field: "type", Operator: OpEquals, Value: "module_source"}, false},
		{"equals numeric field", Condition{Field: "confidence", Operator: OpEquals, Value: 80}, true},
		{"contains description", Condition{Field: "description", Operator: OpContains, Value: "aws_subnet"}, true},
		{"contains miss", Condition{Field: "description", Operator: OpContains, Value: "aws_vpc"}, false},
		{"contains non-string value", Condition{Field: "description", Operator: OpContains, Value: 7}, false},
		{"matches file path", Condition{Field: "location.file", Operator: OpMatches, Value: `\.tf$`}, true},
		{"matches miss", Condition{Field: "location.file", Operator: OpMatches, Value: `\.yaml$`}, false},
		{"gt line", Condition{Field: "location.startLine", Operator: OpGT, Value: 40}, true},
		{"lt confidence", Condition{Field: "confidence", Operator: OpLT, Value: 90}, true},
		{"lt miss", Condition{Field: "confidence", Operator: OpLT, Value: 80}, false},
		{"gt string operand", Condition{Field: "confidence", Operator: OpGT, Value: "75"}, true},
		{"gt non-numeric", Condition{Field: "description", Operator: OpGT, Value: 10}, false},
		{"raw key equals", Condition{Field: "raw.attribute", Operator: OpEquals, Value: "subnet_id"}, true},
		{"raw key gt", Condition{Field: "raw.depth", Operator: OpGT, Value: 2}, true},
		{"raw key exists", Condition{Field: "raw.attribute", Operator: OpExists}, true},
		{"raw key absent", Condition{Field: "raw.missing", Operator: OpExists}, false},
		{"method equals", Condition{Field: "method", Operator: OpEquals, Value: "hcl_parser"}, true},
		{"unknown field", Condition{Field: "nope", Operator: OpEquals, Value: "x"}, false},
		{"unknown field exists", Condition{Field: "nope", Operator: OpExists}, false},
		{"unknown operator", Condition{Field: "type", Operator: Operator("almost"), Value: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, re.conditionHolds(tt.cond, &item))
		})
	}
}

func TestConditionHolds_MalformedRegex(t *testing.T) {
	re := NewRuleEngine()
	item := ruleItem(t)
	cond := Condition{Field: "description", Operator: OpMatches, Value: "(unclosed"}

	// Never matches, and the failure is cached rather than recompiled.
	assert.False(t, re.conditionHolds(cond, &item))
	assert.False(t, re.conditionHolds(cond, &item))
	entry, ok := re.regexCache.Get("(unclosed")
	require.True(t, ok)
	assert.Nil(t, entry.re)
	assert.Error(t, entry.err)
}

func TestEvaluate_PriorityOrderAndContribution(t *testing.T) {
	re := NewRuleEngine()
	items := []evidence.Evidence{
		evidence.New(evidence.TypeInterpolation, "attr ref", 80),
		evidence.New(evidence.TypeInterpolation, "attr ref", 70),
		evidence.New(evidence.TypeNamingConvention, "name match", 50),
	}
	rules := []Rule{
		{ID: "b-low", Name: "low priority", BaseScore: 5, Priority: 1},
		{ID: "a-tied", Name: "tied priority", BaseScore: 5, Priority: 1},
		{
			ID: "boost", Name: "interpolation boost", Priority: 10,
			AppliesTo: []string{"interpolation"},
			BaseScore: 4, Multiplier: 1.5,
		},
		{
			ID: "never", Name: "never matches", Priority: 99,
			Conditions: []Condition{{Field: "confidence", Operator: OpGT, Value: 1000}},
			BaseScore:  50,
		},
	}

	matches := re.Evaluate(items, rules)
	require.Len(t, matches, 3)

	// highest priority first, then rule ID for ties; zero-match rules
	// are dropped entirely
	assert.Equal(t, "boost", matches[0].Rule.ID)
	assert.Equal(t, "a-tied", matches[1].Rule.ID)
	assert.Equal(t, "b-low", matches[2].Rule.ID)

	assert.Equal(t, 2, matches[0].MatchedCount)
	assert.InDelta(t, 4*1.5*2, matches[0].Contribution, 0.001)

	// empty AppliesTo matches every item; zero multiplier defaults to 1
	assert.Equal(t, 3, matches[1].MatchedCount)
	assert.InDelta(t, 15, matches[1].Contribution, 0.001)
}

func TestEvaluate_Empty(t *testing.T) {
	re := NewRuleEngine()
	items := []evidence.Evidence{evidence.New(evidence.TypeInterpolation, "e", 50)}
	rules := []Rule{{ID: "r", Name: "r", BaseScore: 1}}

	assert.Nil(t, re.Evaluate(nil, rules))
	assert.Nil(t, re.Evaluate(items, nil))
}

func TestEvaluate_AllConditionsMustHold(t *testing.T) {
	re := NewRuleEngine()
	items := []evidence.Evidence{ruleItem(t)}
	rule := Rule{
		ID: "and", Name: "conjunction", BaseScore: 10,
		Conditions: []Condition{
			{Field: "confidence", Operator: OpGT, Value: 50},
			{Field: "method", Operator: OpEquals, Value: "other_parser"},
		},
	}

	assert.Empty(t, re.Evaluate(items, []Rule{rule}))
}

func TestApplicableRules(t *testing.T) {
	re := NewRuleEngine()
	rules := []Rule{
		{ID: "any", Name: "any"},
		{ID: "interp", Name: "interp", AppliesTo: []string{"interpolation"}},
		{ID: "naming", Name: "naming", AppliesTo: []string{"naming_convention"}},
	}

	got := re.ApplicableRules(rules, evidence.TypeInterpolation)
	require.Len(t, got, 2)
	assert.Equal(t, "any", got[0].ID)
	assert.Equal(t, "interp", got[1].ID)
}

const validRulesYAML = `version: 1
rules:
  - id: boost-explicit
    name: Boost explicit references
    appliesTo: [depends_on_directive]
    baseScore: 5
    priority: 10
  - id: penalize-guess
    name: Penalize weak naming matches
    baseScore: -10
    conditions:
      - field: confidence
        operator: lt
        value: 40
`

func TestParseRules_Valid(t *testing.T) {
	rules, err := ParseRules([]byte(validRulesYAML))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "boost-explicit", rules[0].ID)
	assert.Equal(t, []string{"depends_on_directive"}, rules[0].AppliesTo)
	assert.Equal(t, float64(-10), rules[1].BaseScore)
	require.Len(t, rules[1].Conditions, 1)
	assert.Equal(t, OpLT, rules[1].Conditions[0].Operator)
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad yaml", "version: [", "decoding rules file"},
		{"wrong version", "version: 2\nrules: []", "unsupported rules file version 2"},
		{"missing id", "version: 1\nrules:\n  - name: x\n    baseScore: 1", "rule 0: missing id"},
		{"missing name", "version: 1\nrules:\n  - id: r1\n    baseScore: 1", `rule "r1": missing name`},
		{
			"duplicate id",
			"version: 1\nrules:\n  - id: r1\n    name: a\n  - id: r1\n    name: b",
			`rule "r1": duplicate id`,
		},
		{
			"missing condition field",
			"version: 1\nrules:\n  - id: r1\n    name: a\n    conditions:\n      - operator: equals\n        value: x",
			`rule "r1": condition 0: missing field`,
		},
		{
			"unknown operator",
			"version: 1\nrules:\n  - id: r1\n    name: a\n    conditions:\n      - field: type\n        operator: near\n        value: x",
			`unknown operator "near"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validRulesYAML), 0o644))

	rules, err := LoadRulesFile(path)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	_, err = LoadRulesFile(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading rules file")
}
