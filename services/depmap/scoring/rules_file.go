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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesFile is the on-disk format for custom scoring rules.
type RulesFile struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// rulesFileVersion is the only supported file version.
const rulesFileVersion = 1

// LoadRulesFile reads and validates a YAML rules file.
//
// Errors:
//   - file read or YAML decode failures
//   - unsupported version
//   - rules missing an ID or name, or duplicating an ID
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates YAML rule definitions.
func ParseRules(data []byte) ([]Rule, error) {
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding rules file: %w", err)
	}
	if file.Version != rulesFileVersion {
		return nil, fmt.Errorf("unsupported rules file version %d (want %d)", file.Version, rulesFileVersion)
	}

	seen := make(map[string]bool, len(file.Rules))
	for i, rule := range file.Rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("rule %d: missing id", i)
		}
		if rule.Name == "" {
			return nil, fmt.Errorf("rule %q: missing name", rule.ID)
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("rule %q: duplicate id", rule.ID)
		}
		seen[rule.ID] = true
		for j, cond := range rule.Conditions {
			if cond.Field == "" {
				return nil, fmt.Errorf("rule %q: condition %d: missing field", rule.ID, j)
			}
			switch cond.Operator {
			case OpEquals, OpContains, OpMatches, OpGT, OpLT, OpExists:
			default:
				return nil, fmt.Errorf("rule %q: condition %d: unknown operator %q", rule.ID, j, cond.Operator)
			}
		}
	}
	return file.Rules, nil
}
