// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package evidence defines the observation value types the scoring engine
// consumes.
//
// A single Evidence is one observed signal supporting the existence of a
// relationship between two infrastructure constructs, e.g. an explicit
// depends_on directive, a string interpolation, or a naming-convention
// match. Evidence values are immutable once collected; detectors create
// them per scan and the scoring engine aggregates them into confidence
// scores.
package evidence

import (
	"time"

	"github.com/google/uuid"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/graph"
)

// Type identifies the kind of signal an evidence item records.
type Type int

const (
	// TypeUnknown indicates an unrecognized signal kind.
	TypeUnknown Type = iota

	// TypeExplicitReference is a direct resource address reference.
	TypeExplicitReference

	// TypeDependsOnDirective is an explicit depends_on entry.
	TypeDependsOnDirective

	// TypeInterpolation is a templated expression referencing another
	// construct.
	TypeInterpolation

	// TypeModuleSource links a module call to its source.
	TypeModuleSource

	// TypeVariableUsage is a var.* reference.
	TypeVariableUsage

	// TypeOutputUsage is a module output reference.
	TypeOutputUsage

	// TypeDataSourceReference is a data.* reference.
	TypeDataSourceReference

	// TypeRemoteStateReference is a terraform_remote_state lookup.
	TypeRemoteStateReference

	// TypeProviderInheritance links a resource to its provider block.
	TypeProviderInheritance

	// TypeSelectorMatch is a Kubernetes label selector matching a
	// workload's labels.
	TypeSelectorMatch

	// TypeLabelMatch is a shared label between two objects.
	TypeLabelMatch

	// TypeNamespaceMatch is co-location in the same namespace.
	TypeNamespaceMatch

	// TypeAnnotationReference is an annotation naming another object.
	TypeAnnotationReference

	// TypeMountReference is a volume/configmap/secret mount by name.
	TypeMountReference

	// TypeImageMatch links a workload to a container image.
	TypeImageMatch

	// TypeHelmTemplateReference is a Helm template expression reference.
	TypeHelmTemplateReference

	// TypeNamingConvention is a name-similarity heuristic match.
	TypeNamingConvention

	// TypeFileProximity is a same-file or same-directory heuristic.
	TypeFileProximity

	// NumTypes is the total number of evidence types.
	NumTypes
)

// typeNames maps Type values to their wire representations.
var typeNames = map[Type]string{
	TypeUnknown:               "unknown",
	TypeExplicitReference:     "explicit_reference",
	TypeDependsOnDirective:    "depends_on_directive",
	TypeInterpolation:         "interpolation",
	TypeModuleSource:          "module_source",
	TypeVariableUsage:         "variable_usage",
	TypeOutputUsage:           "output_usage",
	TypeDataSourceReference:   "data_source_reference",
	TypeRemoteStateReference:  "remote_state_reference",
	TypeProviderInheritance:   "provider_inheritance",
	TypeSelectorMatch:         "selector_match",
	TypeLabelMatch:            "label_match",
	TypeNamespaceMatch:        "namespace_match",
	TypeAnnotationReference:   "annotation_reference",
	TypeMountReference:        "mount_reference",
	TypeImageMatch:            "image_match",
	TypeHelmTemplateReference: "helm_template_reference",
	TypeNamingConvention:      "naming_convention",
	TypeFileProximity:         "file_proximity",
}

// typeValues is the reverse of typeNames, built once at init.
var typeValues = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// String returns the wire representation of the Type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseType maps a wire representation to a Type. Unrecognized values map
// to TypeUnknown.
func ParseType(s string) Type {
	if t, ok := typeValues[s]; ok {
		return t
	}
	return TypeUnknown
}

// Category classifies how an evidence signal was obtained. The scoring
// engine weights contributions per category.
type Category int

const (
	// CategoryUnknown indicates an unclassified signal.
	CategoryUnknown Category = iota

	// CategoryExplicit is a declared relationship (depends_on, direct
	// address reference).
	CategoryExplicit

	// CategorySyntax is a relationship visible in expression syntax
	// (interpolations, template references).
	CategorySyntax

	// CategorySemantic is a relationship implied by configuration
	// semantics (selector matches, mounts, provider inheritance).
	CategorySemantic

	// CategoryStructural is a relationship implied by file or namespace
	// structure.
	CategoryStructural

	// CategoryHeuristic is a best-effort guess (naming conventions,
	// proximity).
	CategoryHeuristic
)

// categoryNames maps Category values to their wire representations.
var categoryNames = map[Category]string{
	CategoryUnknown:    "unknown",
	CategoryExplicit:   "explicit",
	CategorySyntax:     "syntax",
	CategorySemantic:   "semantic",
	CategoryStructural: "structural",
	CategoryHeuristic:  "heuristic",
}

// categoryValues is the reverse of categoryNames, built once at init.
var categoryValues = func() map[string]Category {
	m := make(map[string]Category, len(categoryNames))
	for c, name := range categoryNames {
		m[name] = c
	}
	return m
}()

// String returns the wire representation of the Category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCategory maps a wire representation to a Category. Unrecognized
// values map to CategoryUnknown.
func ParseCategory(s string) Category {
	if c, ok := categoryValues[s]; ok {
		return c
	}
	return CategoryUnknown
}

// DefaultCategory returns the natural category for an evidence type, used
// when a detector does not classify its own signal.
func (t Type) DefaultCategory() Category {
	switch t {
	case TypeExplicitReference, TypeDependsOnDirective:
		return CategoryExplicit
	case TypeInterpolation, TypeVariableUsage, TypeOutputUsage,
		TypeDataSourceReference, TypeHelmTemplateReference:
		return CategorySyntax
	case TypeModuleSource, TypeRemoteStateReference, TypeProviderInheritance,
		TypeSelectorMatch, TypeMountReference, TypeImageMatch,
		TypeAnnotationReference:
		return CategorySemantic
	case TypeNamespaceMatch, TypeLabelMatch:
		return CategoryStructural
	case TypeNamingConvention, TypeFileProximity:
		return CategoryHeuristic
	default:
		return CategoryUnknown
	}
}

// Evidence is one observed signal supporting a candidate relationship.
type Evidence struct {
	// ID uniquely identifies the observation.
	ID string

	// Type is the signal kind.
	Type Type

	// Description is a human-readable account of what was observed.
	Description string

	// Category classifies how the signal was obtained.
	Category Category

	// Location is where the signal was observed in configuration source.
	Location graph.Location

	// Confidence is the detector's raw trust in this single signal,
	// in [0, 100].
	Confidence int

	// Raw optionally carries the detector's structured payload. Rule
	// conditions can address into it via "raw.<key>" field paths.
	Raw map[string]any

	// CollectedAt is when the detector produced the observation.
	CollectedAt time.Time

	// Method names the detector or technique that produced the signal.
	Method string
}

// New creates an evidence item with a generated ID, the type's default
// category, and a clamped confidence.
func New(t Type, description string, confidence int) Evidence {
	return Evidence{
		ID:          uuid.NewString(),
		Type:        t,
		Description: description,
		Category:    t.DefaultCategory(),
		Confidence:  clamp(confidence),
		CollectedAt: time.Now(),
	}
}

// clamp bounds a confidence value to [0, 100].
func clamp(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
