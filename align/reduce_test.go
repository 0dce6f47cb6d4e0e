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

func TestCongruentSetJoiningMergesIdenticalPatterns(t *testing.T) {
	sets := []*bitset.BitSet{makeBitSet(4, 0), makeBitSet(4, 1), makeBitSet(4, 0)}
	gaps := []*bitset.BitSet{makeBitSet(5, 0), makeBitSet(5, 1), makeBitSet(5, 2)}

	// Area 0 never marks an entry as hopeless.
	newSets, newGaps, gapColumns := CongruentSetJoining(sets, gaps, 0, 4, 5)
	if gapColumns != 0 {
		t.Error("CongruentSetJoining dropped entries without cause")
	}
	if len(newSets) != 2 || len(newGaps) != 2 {
		t.Error("CongruentSetJoining merge count failed")
	}
	for i, set := range newSets {
		if set.Test(0) {
			if !newGaps[i].Test(0) || !newGaps[i].Test(2) || newGaps[i].Count() != 2 {
				t.Error("CongruentSetJoining gap merge failed")
			}
		} else {
			if !newGaps[i].Test(1) || newGaps[i].Count() != 1 {
				t.Error("CongruentSetJoining left unrelated entry intact failed")
			}
		}
	}
}

func TestCongruentSetJoiningDropsHopelessEntries(t *testing.T) {
	// Excluding sequences 2 and 3 caps the area at 5*2 = 10, below the
	// current area of 16, so this entry can never pay off.
	sets := []*bitset.BitSet{makeBitSet(4, 2, 3)}
	gaps := []*bitset.BitSet{makeBitSet(5, 2)}

	newSets, _, gapColumns := CongruentSetJoining(sets, gaps, 16, 4, 5)
	if len(newSets) != 0 {
		t.Error("CongruentSetJoining failed to drop hopeless entry")
	}
	if gapColumns != 1 {
		t.Error("CongruentSetJoining dropped column count failed")
	}
}

func TestCongruentSetJoiningIdempotent(t *testing.T) {
	sets := []*bitset.BitSet{makeBitSet(4, 0), makeBitSet(4, 1), makeBitSet(4, 0)}
	gaps := []*bitset.BitSet{makeBitSet(5, 0), makeBitSet(5, 1), makeBitSet(5, 2)}

	newSets, newGaps, _ := CongruentSetJoining(sets, gaps, 0, 4, 5)
	againSets, againGaps, gapColumns := CongruentSetJoining(newSets, newGaps, 0, 4, 5)
	if len(againSets) != len(newSets) || gapColumns != 0 {
		t.Error("CongruentSetJoining is not idempotent")
	}
	for i := range againSets {
		if !againGaps[i].Equal(newGaps[i]) {
			t.Error("CongruentSetJoining second pass changed gap bit sets")
		}
	}
}

func TestSubsetJoining(t *testing.T) {
	sets := []*bitset.BitSet{makeBitSet(4, 0, 1), makeBitSet(4, 0), makeBitSet(4, 2)}
	gaps := []*bitset.BitSet{makeBitSet(5, 0), makeBitSet(5, 1), makeBitSet(5, 2)}

	SubsetJoining(sets, gaps)

	// Excluding sequences 0 and 1 also frees the column gapped only by
	// sequence 0, so the superset entry covers both columns.
	if !gaps[0].Test(0) || !gaps[0].Test(1) || gaps[0].Count() != 2 {
		t.Error("SubsetJoining coverage propagation failed")
	}
	if gaps[1].Count() != 1 || gaps[2].Count() != 1 {
		t.Error("SubsetJoining modified non-superset entries")
	}
}

func TestSubsetJoiningCoverageProperty(t *testing.T) {
	sets := []*bitset.BitSet{
		makeBitSet(6, 0, 1, 2),
		makeBitSet(6, 0, 1),
		makeBitSet(6, 1),
		makeBitSet(6, 3, 4),
	}
	gaps := []*bitset.BitSet{
		makeBitSet(8, 0),
		makeBitSet(8, 1),
		makeBitSet(8, 2),
		makeBitSet(8, 3),
	}

	SubsetJoining(sets, gaps)

	for i := range sets {
		for j := range sets {
			if i == j {
				continue
			}
			if sets[i].IsSuperSet(sets[j]) && !gaps[i].IsSuperSet(gaps[j]) {
				t.Error("SubsetJoining left a superset without its subset's columns")
			}
		}
	}
}

func TestSetElimination(t *testing.T) {
	// With area 16 over 2 sequences of length 10, excluding any single
	// sequence caps the area at 10, so every entry is eliminated.
	sets := []*bitset.BitSet{makeBitSet(2, 0), makeBitSet(2, 1)}
	gaps := []*bitset.BitSet{makeBitSet(10, 0), makeBitSet(10, 1)}

	newSets, newGaps, gapColumns := SetElimination(sets, gaps, 16, 2, 10, 8)
	if len(newSets) != 0 || len(newGaps) != 0 {
		t.Error("SetElimination failed to remove hopeless entries")
	}
	if gapColumns != 0 {
		t.Error("SetElimination gap column count failed")
	}
}

func TestSetEliminationKeepsViableEntries(t *testing.T) {
	sets := []*bitset.BitSet{makeBitSet(4, 0)}
	gaps := []*bitset.BitSet{makeBitSet(5, 1)}

	newSets, _, gapColumns := SetElimination(sets, gaps, 12, 4, 5, 4)
	// Excluding sequence 0 would yield up to 5*3 = 15 > 12.
	if len(newSets) != 1 {
		t.Error("SetElimination removed a viable entry")
	}
	if gapColumns != 0 {
		t.Error("SetElimination gap column count for viable entry failed")
	}
}

func TestGetGapColumns(t *testing.T) {
	gaps := []*bitset.BitSet{makeBitSet(5, 0), makeBitSet(5, 2)}
	// 3 gapped columns in total, 2 still covered by live entries.
	if GetGapColumns(gaps, 5, 2) != 1 {
		t.Error("GetGapColumns failed")
	}
	if GetGapColumns(nil, 5, 2) != 0 {
		t.Error("GetGapColumns on empty input failed")
	}
}
