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

import "math"

// Collection aggregates the evidence items gathered for one candidate
// relationship.
type Collection struct {
	// Items are the collected observations.
	Items []Evidence

	// AggregatedConfidence is the arithmetic mean of the item
	// confidences, rounded to the nearest integer. Zero for an empty
	// collection.
	AggregatedConfidence int

	// Primary is the maximum-confidence item, nil for an empty
	// collection. Ties resolve to the earliest item.
	Primary *Evidence

	// CountByType and CountByCategory group the items.
	CountByType     map[Type]int
	CountByCategory map[Category]int
}

// NewCollection aggregates evidence items into a Collection.
func NewCollection(items []Evidence) Collection {
	c := Collection{
		Items:           items,
		CountByType:     make(map[Type]int),
		CountByCategory: make(map[Category]int),
	}

	if len(items) == 0 {
		return c
	}

	total := 0
	primary := 0
	for i := range items {
		total += items[i].Confidence
		c.CountByType[items[i].Type]++
		c.CountByCategory[items[i].Category]++
		if items[i].Confidence > items[primary].Confidence {
			primary = i
		}
	}

	c.AggregatedConfidence = int(math.Round(float64(total) / float64(len(items))))
	c.Primary = &items[primary]
	return c
}

// Categories returns the number of distinct categories represented.
func (c Collection) Categories() int {
	return len(c.CountByCategory)
}

// AllHeuristic reports whether every item is heuristic. False for an empty
// collection.
func (c Collection) AllHeuristic() bool {
	if len(c.Items) == 0 {
		return false
	}
	return c.CountByCategory[CategoryHeuristic] == len(c.Items)
}

// HasExplicit reports whether any item carries the explicit category.
func (c Collection) HasExplicit() bool {
	return c.CountByCategory[CategoryExplicit] > 0
}
