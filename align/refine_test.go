// elTrim: a tool for trimming multiple sequence alignments by
// maximizing the alignment area.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/eltrim/blob/master/LICENSE.txt>.

package align

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
)

func initialState(gapMatrix [][]bool, alignmentLength int) ([]*bitset.BitSet, []*bitset.BitSet, []bool, Metrics) {
	numSeqs := len(gapMatrix)
	sets, gaps, keepPattern := CreateSets(gapMatrix, nil, alignmentLength)
	gapFreeColumns := alignmentLength - len(sets) - countTrue(keepPattern)
	metrics := Metrics{
		SequenceCount:   numSeqs,
		GapFreeColumns:  gapFreeColumns,
		AlignmentArea:   gapFreeColumns * numSeqs,
		AlignmentLength: alignmentLength,
	}
	return sets, gaps, keepPattern, metrics
}

func TestBranchAndBoundImprovesInitialSolution(t *testing.T) {
	sets, gaps, keepPattern, metrics := initialState(gappySequenceMatrix(), 5)

	result := RunBranchAndBound(sets, gaps, metrics, keepPattern, 4)

	if !result.Excluded[0] || len(result.Excluded) != 1 {
		t.Error("RunBranchAndBound excluded the wrong sequences")
	}
	if result.Metrics.AlignmentArea != 15 || result.Metrics.SequenceCount != 3 {
		t.Error("RunBranchAndBound metrics failed")
	}
	if result.Metrics.GapFreeColumns != 5 {
		t.Error("RunBranchAndBound gap-free column count failed")
	}
}

func TestBranchAndBoundKeepsOptimalSolution(t *testing.T) {
	sets, gaps, keepPattern, metrics := initialState(harmfulExclusionMatrix(), 5)

	result := RunBranchAndBound(sets, gaps, metrics, keepPattern, 4)

	if len(result.Excluded) != 0 {
		t.Error("RunBranchAndBound excluded sequences without improvement")
	}
	if result.Metrics.AlignmentArea != metrics.AlignmentArea {
		t.Error("RunBranchAndBound changed the alignment area without improvement")
	}
}

func TestBranchAndBoundPrefersFewerExclusions(t *testing.T) {
	// Excluding sequence 0 and excluding sequences 1 and 2 both reach
	// the optimal area of 24; the smaller exclusion set must win.
	gapMatrix := [][]bool{
		{true, true, false, false, false, false, false, false, false, false},
		{false, false, true, true, true, true, false, false, false, false},
		{false, false, true, true, true, true, false, false, false, false},
		{false, false, false, false, false, false, false, false, false, false},
		{false, false, false, false, false, false, false, false, false, false},
	}
	sets, gaps, keepPattern, metrics := initialState(gapMatrix, 10)

	if metrics.AlignmentArea != 20 {
		t.Error("initial area failed")
	}

	result := RunBranchAndBound(sets, gaps, metrics, keepPattern, 5)

	if result.Metrics.AlignmentArea != 24 {
		t.Error("RunBranchAndBound optimal area failed")
	}
	if len(result.Excluded) != 1 || !result.Excluded[0] {
		t.Error("RunBranchAndBound failed to prefer the smaller exclusion set")
	}
	if result.Metrics.SequenceCount != 4 || result.Metrics.GapFreeColumns != 6 {
		t.Error("RunBranchAndBound metrics failed")
	}
}

func TestBranchAndBoundNeverBelowHeuristic(t *testing.T) {
	matrices := [][][]bool{
		gappySequenceMatrix(),
		harmfulExclusionMatrix(),
	}
	for _, gapMatrix := range matrices {
		sets, gaps, keepPattern, metrics := initialState(gapMatrix, 5)
		numSeqs := len(gapMatrix)

		heuristicMetrics := metrics
		state := NewSetData(sets, gaps, numSeqs)
		RunHeuristic(state, &heuristicMetrics, defaultConfig(), keepPattern, numSeqs)

		result := RunBranchAndBound(sets, gaps, heuristicMetrics, keepPattern, numSeqs)
		if result.Metrics.AlignmentArea < heuristicMetrics.AlignmentArea {
			t.Error("RunBranchAndBound returned a worse area than the heuristic")
		}
	}
}

func TestFindDislikes(t *testing.T) {
	// Entry 1 is a subset of entry 0, so they dislike each other.
	sets := []*bitset.BitSet{makeBitSet(4, 0, 1), makeBitSet(4, 0), makeBitSet(4, 2)}

	dislikes := findDislikes(sets, 0, 4, 5, 0)
	if len(dislikes[0]) != 1 || dislikes[0][0] != 1 {
		t.Error("findDislikes subset detection failed")
	}
	if len(dislikes[1]) != 1 || dislikes[1][0] != 0 {
		t.Error("findDislikes symmetry failed")
	}
	if len(dislikes[2]) != 0 {
		t.Error("findDislikes marked an unrelated pair")
	}
}

func TestFindDislikesHopelessUnion(t *testing.T) {
	// Excluding both entries leaves 1 sequence; with area 12 over
	// length 5 that union can never pay off.
	sets := []*bitset.BitSet{makeBitSet(4, 0), makeBitSet(4, 1, 2)}

	dislikes := findDislikes(sets, 12, 4, 5, 0)
	if len(dislikes[0]) != 1 || len(dislikes[1]) != 1 {
		t.Error("findDislikes hopeless union detection failed")
	}
}

func TestReorderSetsForSearch(t *testing.T) {
	sets := []*bitset.BitSet{makeBitSet(4, 0), makeBitSet(4, 1, 2), makeBitSet(4, 3)}
	gaps := []*bitset.BitSet{makeBitSet(5, 0), makeBitSet(5, 1), makeBitSet(5, 2, 3)}
	dislikes := [][]int{{1}, {0}, {}}

	orderedSets, orderedGaps, orderedDislikes := reorderSetsForSearch(sets, gaps, dislikes)

	// Entries 0 and 1 have one dislike each; entry 1 is larger and
	// comes first, then entry 0, then the dislike-free entry 2.
	if orderedSets[0].Count() != 2 || orderedSets[1].Count() != 1 || !orderedSets[1].Test(0) {
		t.Error("reorderSetsForSearch ordering failed")
	}
	if !orderedSets[2].Test(3) {
		t.Error("reorderSetsForSearch ordering of dislike-free entries failed")
	}
	if !orderedGaps[0].Test(1) || !orderedGaps[1].Test(0) {
		t.Error("reorderSetsForSearch gap reordering failed")
	}
	// The mutual dislike between the first two entries must survive the
	// renumbering.
	if len(orderedDislikes[0]) != 1 || orderedDislikes[0][0] != 1 {
		t.Error("reorderSetsForSearch dislike remapping failed")
	}
	if len(orderedDislikes[1]) != 1 || orderedDislikes[1][0] != 0 {
		t.Error("reorderSetsForSearch dislike remapping symmetry failed")
	}
}
