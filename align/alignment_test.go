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

func TestIsGap(t *testing.T) {
	if !IsGap('-') || !IsGap('.') {
		t.Error("IsGap failed on gap characters")
	}
	if IsGap('A') || IsGap('n') || IsGap(' ') {
		t.Error("IsGap failed on non-gap characters")
	}
}

func TestCreateGapMatrix(t *testing.T) {
	sequences := [][]byte{
		[]byte("AC-GT"),
		[]byte("A.CGT"),
		[]byte("ACG"),
	}
	gapMatrix := CreateGapMatrix(sequences, 5)
	if len(gapMatrix) != 3 {
		t.Error("CreateGapMatrix row count failed")
	}
	if gapMatrix[0][0] || gapMatrix[0][1] || !gapMatrix[0][2] || gapMatrix[0][3] || gapMatrix[0][4] {
		t.Error("CreateGapMatrix failed for '-' gaps")
	}
	if !gapMatrix[1][1] {
		t.Error("CreateGapMatrix failed for '.' gaps")
	}
	if !gapMatrix[2][3] || !gapMatrix[2][4] {
		t.Error("CreateGapMatrix failed for positions beyond sequence end")
	}
	if gapMatrix[2][0] || gapMatrix[2][1] || gapMatrix[2][2] {
		t.Error("CreateGapMatrix failed for residues")
	}
}

func TestCreateSets(t *testing.T) {
	// Column 1 is gapped by sequence 0, column 3 by sequences 1 and 2.
	gapMatrix := [][]bool{
		{false, true, false, false, false},
		{false, false, false, true, false},
		{false, false, false, true, false},
	}
	sets, gaps, keepPattern := CreateSets(gapMatrix, nil, 5)
	if len(sets) != 2 || len(gaps) != 2 {
		t.Error("CreateSets entry count failed")
	}
	if countTrue(keepPattern) != 0 {
		t.Error("CreateSets keep pattern without keep sequences failed")
	}
	if !sets[0].Test(0) || sets[0].Count() != 1 || !gaps[0].Test(1) || gaps[0].Count() != 1 {
		t.Error("CreateSets first entry failed")
	}
	if !sets[1].Test(1) || !sets[1].Test(2) || sets[1].Count() != 2 || !gaps[1].Test(3) {
		t.Error("CreateSets second entry failed")
	}
}

func TestCreateSetsWithKeepSequences(t *testing.T) {
	gapMatrix := [][]bool{
		{false, true, false, true, false},
		{false, false, false, true, false},
		{false, false, false, false, false},
	}
	sets, _, keepPattern := CreateSets(gapMatrix, map[int]bool{0: true}, 5)
	// Both gapped columns involve the kept sequence, so no entries remain.
	if len(sets) != 0 {
		t.Error("CreateSets failed to drop columns gapped by kept sequences")
	}
	if !keepPattern[1] || !keepPattern[3] || countTrue(keepPattern) != 2 {
		t.Error("CreateSets keep pattern failed")
	}
}

func TestNewSetData(t *testing.T) {
	state := NewSetData(nil, nil, 4)
	if len(state.Translation) != 4 {
		t.Error("NewSetData translation length failed")
	}
	for i, idx := range state.Translation {
		if idx != i {
			t.Error("NewSetData identity translation failed")
		}
	}
	if len(state.Excluded) != 0 {
		t.Error("NewSetData exclusion set failed")
	}
}

func TestCreateWorkingSets(t *testing.T) {
	origSets := []*bitset.BitSet{makeBitSet(4, 0), makeBitSet(4, 2, 3)}
	origGaps := []*bitset.BitSet{makeBitSet(5, 1), makeBitSet(5, 3)}
	excluded := map[int]bool{0: true}
	translation := []int{1, 2, 3}

	sets, gaps := createWorkingSets(origSets, origGaps, excluded, translation, 4)
	// The first entry's only gapped sequence is excluded, so it drops out.
	if len(sets) != 1 || len(gaps) != 1 {
		t.Error("createWorkingSets entry count failed")
	}
	// Sequences 2 and 3 translate to working positions 1 and 2.
	if sets[0].Test(0) || !sets[0].Test(1) || !sets[0].Test(2) {
		t.Error("createWorkingSets translation failed")
	}
	if !gaps[0].Test(3) || gaps[0].Count() != 1 {
		t.Error("createWorkingSets gap copy failed")
	}
	gaps[0].Set(4)
	if origGaps[1].Test(4) {
		t.Error("createWorkingSets failed to copy gap bit sets")
	}
}
