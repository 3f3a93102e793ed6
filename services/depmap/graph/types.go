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
	"sort"
	"time"
)

// Default configuration values.
const (
	// DefaultMaxNodes is the default maximum number of nodes a builder accepts.
	DefaultMaxNodes = 250_000

	// DefaultMaxEdgesPerNode is the default maximum number of outgoing edges
	// a single node may carry. Zero disables the limit.
	DefaultMaxEdgesPerNode = 10_000

	// MinConfidence and MaxConfidence bound edge confidence values.
	MinConfidence = 0
	MaxConfidence = 100
)

// NodeType identifies the kind of infrastructure construct a node represents.
type NodeType int

const (
	// NodeTypeUnknown indicates an unrecognized construct. Parsers emit it
	// for constructs this version does not model yet.
	NodeTypeUnknown NodeType = iota

	// Terraform constructs.
	NodeTypeTerraformResource
	NodeTypeTerraformDataSource
	NodeTypeTerraformModule
	NodeTypeTerraformVariable
	NodeTypeTerraformOutput
	NodeTypeTerraformLocal
	NodeTypeTerraformProvider
	NodeTypeTerraformBackend

	// Terragrunt constructs.
	NodeTypeTerragruntConfig
	NodeTypeTerragruntInclude
	NodeTypeTerragruntDependency

	// Kubernetes constructs.
	NodeTypeK8sDeployment
	NodeTypeK8sStatefulSet
	NodeTypeK8sDaemonSet
	NodeTypeK8sJob
	NodeTypeK8sCronJob
	NodeTypeK8sPod
	NodeTypeK8sService
	NodeTypeK8sIngress
	NodeTypeK8sConfigMap
	NodeTypeK8sSecret
	NodeTypeK8sNamespace
	NodeTypeK8sServiceAccount
	NodeTypeK8sPersistentVolumeClaim
	NodeTypeK8sCustomResource

	// Helm constructs.
	NodeTypeHelmRelease
	NodeTypeHelmChart
	NodeTypeHelmValues

	// Miscellaneous constructs.
	NodeTypeContainerImage
	NodeTypeFile

	// NumNodeTypes is the total number of node types (for array sizing).
	NumNodeTypes
)

// nodeTypeNames maps NodeType values to their wire representations.
var nodeTypeNames = map[NodeType]string{
	NodeTypeUnknown:                  "unknown",
	NodeTypeTerraformResource:        "terraform_resource",
	NodeTypeTerraformDataSource:      "terraform_data_source",
	NodeTypeTerraformModule:          "terraform_module",
	NodeTypeTerraformVariable:        "terraform_variable",
	NodeTypeTerraformOutput:          "terraform_output",
	NodeTypeTerraformLocal:           "terraform_local",
	NodeTypeTerraformProvider:        "terraform_provider",
	NodeTypeTerraformBackend:         "terraform_backend",
	NodeTypeTerragruntConfig:         "terragrunt_config",
	NodeTypeTerragruntInclude:        "terragrunt_include",
	NodeTypeTerragruntDependency:     "terragrunt_dependency",
	NodeTypeK8sDeployment:            "k8s_deployment",
	NodeTypeK8sStatefulSet:           "k8s_statefulset",
	NodeTypeK8sDaemonSet:             "k8s_daemonset",
	NodeTypeK8sJob:                   "k8s_job",
	NodeTypeK8sCronJob:               "k8s_cronjob",
	NodeTypeK8sPod:                   "k8s_pod",
	NodeTypeK8sService:               "k8s_service",
	NodeTypeK8sIngress:               "k8s_ingress",
	NodeTypeK8sConfigMap:             "k8s_configmap",
	NodeTypeK8sSecret:                "k8s_secret",
	NodeTypeK8sNamespace:             "k8s_namespace",
	NodeTypeK8sServiceAccount:        "k8s_serviceaccount",
	NodeTypeK8sPersistentVolumeClaim: "k8s_persistentvolumeclaim",
	NodeTypeK8sCustomResource:        "k8s_custom_resource",
	NodeTypeHelmRelease:              "helm_release",
	NodeTypeHelmChart:                "helm_chart",
	NodeTypeHelmValues:               "helm_values",
	NodeTypeContainerImage:           "container_image",
	NodeTypeFile:                     "file",
}

// nodeTypeValues is the reverse of nodeTypeNames, built once at init.
var nodeTypeValues = func() map[string]NodeType {
	m := make(map[string]NodeType, len(nodeTypeNames))
	for t, name := range nodeTypeNames {
		m[name] = t
	}
	return m
}()

// String returns the wire representation of the NodeType.
func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseNodeType maps a wire representation to a NodeType.
// Unrecognized values map to NodeTypeUnknown, preserving forward
// compatibility with parsers that emit newer construct kinds.
func ParseNodeType(s string) NodeType {
	if t, ok := nodeTypeValues[s]; ok {
		return t
	}
	return NodeTypeUnknown
}

// EdgeType identifies the kind of relationship an edge represents.
type EdgeType int

const (
	// EdgeTypeUnknown indicates an unrecognized relationship type.
	EdgeTypeUnknown EdgeType = iota

	// EdgeTypeReferences is a generic attribute reference between constructs.
	EdgeTypeReferences

	// EdgeTypeDependsOn is an explicit depends_on directive.
	EdgeTypeDependsOn

	// Terraform relationship types.
	EdgeTypeModuleCall
	EdgeTypeModuleOutput
	EdgeTypeVariableReference
	EdgeTypeLocalReference
	EdgeTypeDataReference
	EdgeTypeOutputReference
	EdgeTypeProviderReference
	EdgeTypeBackendReference
	EdgeTypeRemoteState

	// Terragrunt relationship types.
	EdgeTypeInclude

	// Kubernetes relationship types.
	EdgeTypeSelectorMatch
	EdgeTypeNamespaceScope
	EdgeTypeConfigMapMount
	EdgeTypeSecretMount
	EdgeTypeVolumeMount
	EdgeTypeServiceBackend
	EdgeTypeIngressBackend
	EdgeTypeImageReference

	// Helm relationship types.
	EdgeTypeHelmValuesReference
	EdgeTypeChartDependency

	// NumEdgeTypes is the total number of edge types (for array sizing).
	NumEdgeTypes
)

// edgeTypeNames maps EdgeType values to their wire representations.
var edgeTypeNames = map[EdgeType]string{
	EdgeTypeUnknown:             "unknown",
	EdgeTypeReferences:          "references",
	EdgeTypeDependsOn:           "depends_on",
	EdgeTypeModuleCall:          "module_call",
	EdgeTypeModuleOutput:        "module_output",
	EdgeTypeVariableReference:   "variable_reference",
	EdgeTypeLocalReference:      "local_reference",
	EdgeTypeDataReference:       "data_reference",
	EdgeTypeOutputReference:     "output_reference",
	EdgeTypeProviderReference:   "provider_reference",
	EdgeTypeBackendReference:    "backend_reference",
	EdgeTypeRemoteState:         "remote_state",
	EdgeTypeInclude:             "include",
	EdgeTypeSelectorMatch:       "selector_match",
	EdgeTypeNamespaceScope:      "namespace_scope",
	EdgeTypeConfigMapMount:      "configmap_mount",
	EdgeTypeSecretMount:         "secret_mount",
	EdgeTypeVolumeMount:         "volume_mount",
	EdgeTypeServiceBackend:      "service_backend",
	EdgeTypeIngressBackend:      "ingress_backend",
	EdgeTypeImageReference:      "image_reference",
	EdgeTypeHelmValuesReference: "helm_values_reference",
	EdgeTypeChartDependency:     "chart_dependency",
}

// edgeTypeValues is the reverse of edgeTypeNames, built once at init.
var edgeTypeValues = func() map[string]EdgeType {
	m := make(map[string]EdgeType, len(edgeTypeNames))
	for t, name := range edgeTypeNames {
		m[name] = t
	}
	return m
}()

// String returns the wire representation of the EdgeType.
func (t EdgeType) String() string {
	if name, ok := edgeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseEdgeType maps a wire representation to an EdgeType.
// Unrecognized values map to EdgeTypeUnknown.
func ParseEdgeType(s string) EdgeType {
	if t, ok := edgeTypeValues[s]; ok {
		return t
	}
	return EdgeTypeUnknown
}

// Location identifies where a construct or relationship is expressed in
// configuration source. Lines are 1-based; zero column values mean "unset".
type Location struct {
	// File is the path to the source file, relative to the scan root.
	File string

	// StartLine and EndLine are 1-based line numbers.
	StartLine int
	EndLine   int

	// StartColumn and EndColumn are 1-based column numbers, 0 if unknown.
	StartColumn int
	EndColumn   int
}

// MetadataKind identifies the value kind stored in a MetadataValue.
type MetadataKind int

const (
	// MetadataKindString holds a single string.
	MetadataKindString MetadataKind = iota

	// MetadataKindNumber holds a float64.
	MetadataKindNumber

	// MetadataKindBool holds a bool.
	MetadataKindBool

	// MetadataKindStringList holds a list of strings.
	MetadataKindStringList
)

// MetadataValue is a scalar-or-string-list value carried in a node metadata
// bag. The closed kind set keeps merge and equality well-defined while
// remaining open enough for parser-provided annotations.
type MetadataValue struct {
	Kind MetadataKind
	Str  string
	Num  float64
	Bool bool
	List []string
}

// StringValue wraps a string as a MetadataValue.
func StringValue(s string) MetadataValue {
	return MetadataValue{Kind: MetadataKindString, Str: s}
}

// NumberValue wraps a number as a MetadataValue.
func NumberValue(n float64) MetadataValue {
	return MetadataValue{Kind: MetadataKindNumber, Num: n}
}

// BoolValue wraps a bool as a MetadataValue.
func BoolValue(b bool) MetadataValue {
	return MetadataValue{Kind: MetadataKindBool, Bool: b}
}

// StringListValue wraps a string list as a MetadataValue.
func StringListValue(items ...string) MetadataValue {
	return MetadataValue{Kind: MetadataKindStringList, List: items}
}

// Equal reports whether two metadata values hold the same kind and payload.
func (v MetadataValue) Equal(o MetadataValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case MetadataKindString:
		return v.Str == o.Str
	case MetadataKindNumber:
		return v.Num == o.Num
	case MetadataKindBool:
		return v.Bool == o.Bool
	case MetadataKindStringList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != o.List[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Metadata is an open string-keyed bag of MetadataValue entries.
type Metadata map[string]MetadataValue

// Keys returns the metadata keys in sorted order for deterministic iteration.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the metadata bag.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mergeMetadata shallow-merges b over a per key; later values win.
func mergeMetadata(a, b Metadata) Metadata {
	if a == nil && b == nil {
		return nil
	}
	out := make(Metadata, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// ResourceInfo carries Terraform resource/data-source variant fields.
type ResourceInfo struct {
	// ResourceType is the Terraform type, e.g. "aws_subnet".
	ResourceType string

	// Provider is the provider short name, e.g. "aws".
	Provider string
}

// ModuleInfo carries Terraform module variant fields.
type ModuleInfo struct {
	// Source is the module source address (registry, git, or local path).
	Source string

	// Version is the declared version constraint, empty for local modules.
	Version string
}

// KubernetesInfo carries Kubernetes object variant fields.
type KubernetesInfo struct {
	APIVersion string
	Kind       string
	Namespace  string
}

// HelmInfo carries Helm release/chart variant fields.
type HelmInfo struct {
	Chart      string
	Version    string
	Repository string
}

// Node represents one infrastructure construct.
//
// ID is globally unique within a graph and stable across rebuilds of the
// same source; the repository layer maps it to storage identifiers without
// reinterpreting it. Variant pointers (Resource, Module, Kubernetes, Helm)
// are populated only for the matching node types.
type Node struct {
	ID       string
	Type     NodeType
	Name     string
	Location Location
	Metadata Metadata

	Resource   *ResourceInfo
	Module     *ModuleInfo
	Kubernetes *KubernetesInfo
	Helm       *HelmInfo
}

// Clone returns a copy of the node with its own metadata bag and variant
// structs. Used by merge conflict resolution so snapshots never share
// mutable state.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Metadata = n.Metadata.Clone()
	if n.Resource != nil {
		r := *n.Resource
		out.Resource = &r
	}
	if n.Module != nil {
		m := *n.Module
		out.Module = &m
	}
	if n.Kubernetes != nil {
		k := *n.Kubernetes
		out.Kubernetes = &k
	}
	if n.Helm != nil {
		h := *n.Helm
		out.Helm = &h
	}
	return &out
}

// EdgeMetadata carries per-edge annotations.
type EdgeMetadata struct {
	// Implicit is true when the relationship was inferred rather than
	// declared (e.g. interpolation vs. depends_on).
	Implicit bool

	// Confidence is the scored trust in this relationship, always in
	// [0, 100]. The builder clamps out-of-range values on add.
	Confidence int

	// Attribute names the attribute the relationship was observed on,
	// empty if not applicable.
	Attribute string
}

// Edge represents a typed, directed relationship between two nodes.
type Edge struct {
	// ID is unique within a graph unless duplicate edges are allowed.
	ID string

	// SourceID and TargetID are node IDs. The edge is directed
	// source -> target: the source depends on the target.
	SourceID string
	TargetID string

	// Type is the relationship type.
	Type EdgeType

	// Label is an optional human-readable annotation.
	Label string

	// Metadata carries the confidence and provenance annotations.
	Metadata EdgeMetadata
}

// GraphMetadata describes a built snapshot.
type GraphMetadata struct {
	// CreatedAt is when Build() materialized the snapshot.
	CreatedAt time.Time

	// SourceFiles is the deduplicated, sorted set of files the nodes
	// were parsed from.
	SourceFiles []string

	// NodeCounts and EdgeCounts group the snapshot contents by type.
	NodeCounts map[NodeType]int
	EdgeCounts map[EdgeType]int

	// BuildDuration is the elapsed time from builder creation (or the
	// last Clear) to Build().
	BuildDuration time.Duration
}

// Graph is an immutable dependency graph snapshot.
//
// Thread Safety:
//
//	A Graph is frozen at construction and safe for concurrent readers.
//	All mutation happens through the Builder that produced it.
type Graph struct {
	// ID identifies the snapshot. Stable when set via WithGraphID,
	// otherwise generated per build.
	ID string

	// Metadata describes the snapshot contents.
	Metadata GraphMetadata

	nodes    map[string]*Node
	edges    []*Edge
	outgoing map[string][]*Edge
	incoming map[string][]*Edge
}

// Node retrieves a node by ID. O(1).
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes sorted by ID for deterministic iteration.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns all edges in insertion order. Callers must not mutate the
// returned slice.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// NodeCount returns the number of nodes in the snapshot.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the snapshot.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Outgoing returns the edges whose source is the given node ID.
func (g *Graph) Outgoing(id string) []*Edge {
	return g.outgoing[id]
}

// Incoming returns the edges whose target is the given node ID.
func (g *Graph) Incoming(id string) []*Edge {
	return g.incoming[id]
}

// clampConfidence bounds a confidence value to [MinConfidence, MaxConfidence].
func clampConfidence(c int) int {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}
