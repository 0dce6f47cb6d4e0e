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

// Package align implements the optimization engine of eltrim.
//
// The engine represents the gap pattern of every alignment column as a
// bit set over sequence indices, reduces those pattern entries by
// joining and elimination passes, and searches for a set of sequences
// whose exclusion maximizes the alignment area, first with a greedy
// heuristic and optionally with an exact branch-and-bound refinement.
package align

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/pargo/parallel"
)

// IsGap tells whether a sequence byte is a gap character.
func IsGap(b byte) bool {
	return b == '-' || b == '.'
}

// Metrics describes the current state of an alignment during
// optimization. AlignmentArea is always GapFreeColumns times
// SequenceCount; AlignmentLength is the total number of columns and
// stays constant during a run.
type Metrics struct {
	SequenceCount   int
	GapFreeColumns  int
	AlignmentArea   int
	AlignmentLength int
}

// SetData holds the working state of a heuristic run. Sets and Gaps
// are the original pattern entries; Translation maps working sequence
// positions back to original indices and shrinks as exclusions
// accumulate; Excluded collects original indices and only ever grows.
type SetData struct {
	Sets        []*bitset.BitSet
	Gaps        []*bitset.BitSet
	Translation []int
	Excluded    map[int]bool
}

// NewSetData returns the working state for an alignment with the given
// original pattern entries. The entries are shared, not copied; the
// searches never mutate them.
func NewSetData(sets, gaps []*bitset.BitSet, numSequences int) *SetData {
	translation := make([]int, numSequences)
	for i := range translation {
		translation[i] = i
	}
	return &SetData{
		Sets:        sets,
		Gaps:        gaps,
		Translation: translation,
		Excluded:    make(map[int]bool),
	}
}

// CreateGapMatrix computes for each sequence a boolean row over all
// alignment columns, where true marks a gap. Positions beyond the end
// of a sequence count as gaps.
func CreateGapMatrix(sequences [][]byte, alignmentLength int) [][]bool {
	gapMatrix := make([][]bool, len(sequences))
	parallel.Range(0, len(sequences), 0, func(low, high int) {
		for s := low; s < high; s++ {
			row := make([]bool, alignmentLength)
			for col := range row {
				row[col] = true
			}
			for col, b := range sequences[s] {
				if !IsGap(b) {
					row[col] = false
				}
			}
			gapMatrix[s] = row
		}
	})
	return gapMatrix
}
