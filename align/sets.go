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
	"github.com/bits-and-blooms/bitset"
)

// CreateSets derives the initial pattern entries from a gap matrix.
//
// The keep pattern marks every column where a must-keep sequence is
// gapped; those columns can never become gap-free and are left out of
// the entries entirely. Every remaining column with at least one gap
// yields one entry: a set over the sequence indices gapped there, and
// a gap bit set naming just that column. Columns sharing a pattern are
// merged later by the joining passes.
func CreateSets(gapMatrix [][]bool, keepIndices map[int]bool, alignmentLength int) (sets, gaps []*bitset.BitSet, keepPattern []bool) {
	numSeqs := len(gapMatrix)
	keepPattern = make([]bool, alignmentLength)
	for keepSeq := range keepIndices {
		for col, isGap := range gapMatrix[keepSeq] {
			if isGap {
				keepPattern[col] = true
			}
		}
	}

	columnSets := make([]*bitset.BitSet, alignmentLength)
	for seqIdx, row := range gapMatrix {
		for col, isGap := range row {
			if isGap && !keepPattern[col] {
				if columnSets[col] == nil {
					columnSets[col] = bitset.New(uint(numSeqs))
				}
				columnSets[col].Set(uint(seqIdx))
			}
		}
	}

	for col, columnSet := range columnSets {
		if columnSet != nil {
			sets = append(sets, columnSet)
			gap := bitset.New(uint(alignmentLength))
			gap.Set(uint(col))
			gaps = append(gaps, gap)
		}
	}

	return sets, gaps, keepPattern
}

// createWorkingSets rebuilds pattern entries restricted to the
// sequences that are still included. The rebuilt sets are indexed by
// working positions (the translation order); an entry survives only if
// at least one still-included sequence remains gapped in it. Gap bit
// sets are copied so that the joining passes can mutate them freely.
func createWorkingSets(origSets, origGaps []*bitset.BitSet, excluded map[int]bool, translation []int, numOrigSeqs int) (sets, gaps []*bitset.BitSet) {
	for i, origSet := range origSets {
		bools := make([]bool, 0, len(translation))
		hasAnyGap := false
		for idx := 0; idx < numOrigSeqs; idx++ {
			if excluded[idx] {
				continue
			}
			isGap := origSet.Test(uint(idx))
			bools = append(bools, isGap)
			hasAnyGap = hasAnyGap || isGap
		}
		if hasAnyGap {
			sets = append(sets, packBools(bools))
			gaps = append(gaps, origGaps[i].Clone())
		}
	}
	return sets, gaps
}
