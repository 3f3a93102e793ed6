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
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/evidence"
)

// Operator identifies a condition comparison.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpMatches  Operator = "matches"
	OpGT       Operator = "gt"
	OpLT       Operator = "lt"
	OpExists   Operator = "exists"
)

// Condition is a single predicate over an evidence item.
//
// Field is a dotted path into the item: "type", "category", "confidence",
// "description", "method", "location.file", "location.startLine", or
// "raw.<key>" for collector-specific payload fields.
type Condition struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// Rule is a user-defined scoring rule. A rule matches an evidence item
// when the item's type is in AppliesTo (or AppliesTo is empty) and every
// condition holds.
type Rule struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	AppliesTo   []string    `json:"appliesTo,omitempty" yaml:"appliesTo,omitempty"`
	BaseScore   float64     `json:"baseScore" yaml:"baseScore"`
	Multiplier  float64     `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	Conditions  []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Priority    int         `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// RuleMatch is the outcome of evaluating one rule against a set of
// evidence items.
type RuleMatch struct {
	Rule Rule

	// MatchedCount is the number of evidence items the rule matched.
	MatchedCount int

	// Contribution is BaseScore × Multiplier × MatchedCount. A negative
	// base score yields a penalty.
	Contribution float64
}

const defaultRegexCacheSize = 256

// regexEntry caches a compile result, including failures, so a malformed
// pattern is compiled (and logged) at most once.
type regexEntry struct {
	re  *regexp.Regexp
	err error
}

// RuleEngine evaluates custom rules against evidence.
//
// Thread Safety: Safe for concurrent use. The regex cache is internally
// synchronized.
type RuleEngine struct {
	regexCache *lru.Cache[string, *regexEntry]
	logger     *slog.Logger
}

// RuleEngineOption is a functional option for configuring RuleEngine.
type RuleEngineOption func(*ruleEngineConfig)

type ruleEngineConfig struct {
	cacheSize int
	logger    *slog.Logger
}

// WithRegexCacheSize overrides the compiled-pattern cache capacity.
func WithRegexCacheSize(n int) RuleEngineOption {
	return func(c *ruleEngineConfig) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// WithLogger overrides the logger used for malformed-rule diagnostics.
func WithLogger(logger *slog.Logger) RuleEngineOption {
	return func(c *ruleEngineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRuleEngine creates a rule engine with a bounded regex cache.
func NewRuleEngine(opts ...RuleEngineOption) *RuleEngine {
	cfg := ruleEngineConfig{
		cacheSize: defaultRegexCacheSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cache, err := lru.New[string, *regexEntry](cfg.cacheSize)
	if err != nil {
		// Only reachable with a non-positive size, which the option
		// guards against.
		cache, _ = lru.New[string, *regexEntry](defaultRegexCacheSize)
	}
	return &RuleEngine{regexCache: cache, logger: cfg.logger}
}

// Evaluate runs every rule against every evidence item and returns the
// matches in descending priority order (rule ID breaks ties). Rules that
// matched nothing are omitted. Malformed conditions never fail the
// evaluation; they simply do not match.
func (re *RuleEngine) Evaluate(items []evidence.Evidence, rules []Rule) []RuleMatch {
	if len(rules) == 0 || len(items) == 0 {
		return nil
	}

	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	matches := make([]RuleMatch, 0, len(ordered))
	for _, rule := range ordered {
		count := 0
		for i := range items {
			if re.ruleMatches(rule, &items[i]) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		mult := rule.Multiplier
		if mult == 0 {
			mult = 1
		}
		matches = append(matches, RuleMatch{
			Rule:         rule,
			MatchedCount: count,
			Contribution: rule.BaseScore * mult * float64(count),
		})
	}
	return matches
}

// ApplicableRules filters rules down to those whose AppliesTo covers the
// given evidence type. Rules with an empty AppliesTo apply to everything.
func (re *RuleEngine) ApplicableRules(rules []Rule, t evidence.Type) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if ruleAppliesTo(rule, t) {
			out = append(out, rule)
		}
	}
	return out
}

func ruleAppliesTo(rule Rule, t evidence.Type) bool {
	if len(rule.AppliesTo) == 0 {
		return true
	}
	name := t.String()
	for _, a := range rule.AppliesTo {
		if a == name {
			return true
		}
	}
	return false
}

func (re *RuleEngine) ruleMatches(rule Rule, item *evidence.Evidence) bool {
	if !ruleAppliesTo(rule, item.Type) {
		return false
	}
	for _, cond := range rule.Conditions {
		if !re.conditionHolds(cond, item) {
			return false
		}
	}
	return true
}

func (re *RuleEngine) conditionHolds(cond Condition, item *evidence.Evidence) bool {
	val, ok := resolveField(item, cond.Field)
	if cond.Operator == OpExists {
		return ok
	}
	if !ok {
		return false
	}

	switch cond.Operator {
	case OpEquals:
		return fmt.Sprintf("%v", val) == fmt.Sprintf("%v", cond.Value)
	case OpContains:
		s, sok := val.(string)
		want, wok := cond.Value.(string)
		return sok && wok && strings.Contains(s, want)
	case OpMatches:
		s, sok := val.(string)
		pattern, pok := cond.Value.(string)
		if !sok || !pok {
			return false
		}
		compiled := re.compile(pattern)
		if compiled == nil {
			return false
		}
		return compiled.MatchString(s)
	case OpGT, OpLT:
		have, herr := toFloat(val)
		want, werr := toFloat(cond.Value)
		if herr != nil || werr != nil {
			re.logger.Debug("non-numeric comparison in rule condition skipped",
				"field", cond.Field, "operator", string(cond.Operator))
			return false
		}
		if cond.Operator == OpGT {
			return have > want
		}
		return have < want
	default:
		re.logger.Debug("unknown rule operator skipped", "operator", string(cond.Operator))
		return false
	}
}

// compile returns the compiled pattern or nil when the pattern is
// malformed. Results, including failures, are cached.
func (re *RuleEngine) compile(pattern string) *regexp.Regexp {
	if entry, ok := re.regexCache.Get(pattern); ok {
		return entry.re
	}
	compiled, err := regexp.Compile(pattern)
	entry := &regexEntry{re: compiled, err: err}
	if err != nil {
		entry.re = nil
		re.logger.Debug("malformed rule pattern treated as non-matching",
			"pattern", pattern, "error", err)
	}
	re.regexCache.Add(pattern, entry)
	return entry.re
}

// resolveField looks up a dotted field path on an evidence item. The
// second return reports whether the field exists.
func resolveField(item *evidence.Evidence, field string) (any, bool) {
	switch field {
	case "id":
		return item.ID, true
	case "type":
		return item.Type.String(), true
	case "category":
		return item.Category.String(), true
	case "confidence":
		return item.Confidence, true
	case "description":
		return item.Description, true
	case "method":
		return item.Method, true
	case "location.file":
		return item.Location.File, true
	case "location.startLine":
		return item.Location.StartLine, true
	case "location.endLine":
		return item.Location.EndLine, true
	}
	if key, ok := strings.CutPrefix(field, "raw."); ok {
		v, present := item.Raw[key]
		return v, present
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
