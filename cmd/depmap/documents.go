// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/graph"
	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/ingest"
	"github.com/ste-bah/dependancy-mapping-platform-sub003/services/depmap/scoring"
)

// assembleConcurrency caps parallel document assembly. Candidate
// documents are small; this mostly bounds file handles.
const assembleConcurrency = 8

// loadRules resolves the scoring rules for a command: the explicit flag
// wins over the configured default; neither means no custom rules.
func loadRules(flagPath string) ([]scoring.Rule, error) {
	path := flagPath
	if path == "" {
		path = appConfig.RulesFile
	}
	if path == "" {
		return nil, nil
	}
	rules, err := scoring.LoadRulesFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded scoring rules", "path", path, "count", len(rules))
	return rules, nil
}

// assembleAll loads and assembles every candidate document concurrently,
// then merges the results into one graph.
//
// Description:
//
//	Documents are independent collector outputs, so assembly runs in
//	parallel under an errgroup; the first failure cancels the rest.
//	Merging uses the metadata-merge strategy: the same node reported by
//	two collectors (a Terraform resource also seen by the state
//	collector, say) unions its metadata. Edge scores from later
//	documents win on ID collision.
func assembleAll(ctx context.Context, paths []string, rules []scoring.Rule) (*graph.Graph, map[string]scoring.Score, error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no candidate documents given")
	}

	var builderOpts []graph.BuilderOption
	if appConfig.MaxNodes > 0 {
		builderOpts = append(builderOpts, graph.WithMaxNodes(appConfig.MaxNodes))
	}
	if appConfig.MaxEdgesPerNode > 0 {
		builderOpts = append(builderOpts, graph.WithMaxEdgesPerNode(appConfig.MaxEdgesPerNode))
	}

	assembler := ingest.NewAssembler(
		ingest.WithRules(rules),
		ingest.WithBuilderOptions(builderOpts...),
		ingest.WithAssemblerLogger(logger.Slog()),
	)

	results := make([]*ingest.Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(assembleConcurrency)

	for i, path := range paths {
		g.Go(func() error {
			doc, err := ingest.LoadDocument(path)
			if err != nil {
				return err
			}
			res, err := assembler.Assemble(ctx, doc)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if len(results) == 1 {
		return results[0].Graph, results[0].Scores, nil
	}

	graphs := make([]*graph.Graph, len(results))
	scores := make(map[string]scoring.Score)
	for i, res := range results {
		graphs[i] = res.Graph
		for id, s := range res.Scores {
			scores[id] = s
		}
	}

	merged, err := graph.Merge(ctx, graphs, graph.MergeOptions{
		Strategy: graph.ConflictMerge,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("merging graphs: %w", err)
	}
	return merged, scores, nil
}
