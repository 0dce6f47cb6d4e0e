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
	"encoding/binary"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// patternKey serializes a bit pattern for exact-equality deduplication.
func patternKey(b *bitset.BitSet) string {
	words := b.Bytes()
	buf := make([]byte, 8*len(words))
	for i, word := range words {
		binary.LittleEndian.PutUint64(buf[8*i:], word)
	}
	return string(buf)
}

// removeEntries compacts the parallel entry slices by replacing each
// removed entry with the current last one. Indices are processed in
// descending order so that pending removals stay valid.
func removeEntries(sets, gaps []*bitset.BitSet, toRemove map[int]bool) ([]*bitset.BitSet, []*bitset.BitSet) {
	indices := make([]int, 0, len(toRemove))
	for i := range toRemove {
		indices = append(indices, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, i := range indices {
		last := len(sets) - 1
		sets[i] = sets[last]
		sets = sets[:last]
		gaps[i] = gaps[last]
		gaps = gaps[:last]
	}
	return sets, gaps
}

// CongruentSetJoining drops entries that cannot beat the current
// alignment area even if every column became gap-free, and merges
// entries with identical sequence patterns by OR-ing their gap bit
// sets into a single retained entry. Scanning runs from the last entry
// backwards, so the entry seen first from the end becomes the merge
// target. Returns the compacted slices and the number of dropped
// hopeless entries.
func CongruentSetJoining(sets, gaps []*bitset.BitSet, alignmentArea, sequenceCount, alignmentLength int) ([]*bitset.BitSet, []*bitset.BitSet, int) {
	gapColumns := 0
	toRemove := make(map[int]bool)

	for i, set := range sets {
		sizeI := int(set.Count())
		if alignmentArea > alignmentLength*(sequenceCount-sizeI) {
			toRemove[i] = true
			gapColumns++
		}
	}

	patternToIdx := make(map[string]int)
	for i := len(sets) - 1; i >= 0; i-- {
		if toRemove[i] {
			continue
		}
		key := patternKey(sets[i])
		if lastIdx, ok := patternToIdx[key]; ok {
			gaps[lastIdx].InPlaceUnion(gaps[i])
			toRemove[i] = true
		} else {
			patternToIdx[key] = i
		}
	}

	sets, gaps = removeEntries(sets, gaps, toRemove)
	return sets, gaps, gapColumns
}

// SubsetJoining propagates column coverage from narrower entries to
// broader ones: whenever the sequence set of entry j is a subset of
// that of entry i, any exclusion freeing i's sequences also frees j's
// columns, so j's gap bit set is OR-ed into i's. Must run after
// CongruentSetJoining, which shrinks the quadratic pair scan.
func SubsetJoining(sets, gaps []*bitset.BitSet) {
	type merge struct {
		target int
		gap    *bitset.BitSet
	}
	var merges []merge

	for i := range sets {
		for j := range sets {
			if i == j {
				continue
			}
			if sets[i].IsSuperSet(sets[j]) {
				// Snapshot j's gaps so later merges into j do not leak into i.
				merges = append(merges, merge{i, gaps[j].Clone()})
			}
		}
	}

	for _, m := range merges {
		gaps[m.target].InPlaceUnion(m.gap)
	}
}

// SetElimination iteratively discards entries whose best-case area
// cannot exceed the current alignment area, recomputing the
// unrecoverable gap column count after each sweep. The loop stops when
// a sweep removes nothing or the count stabilizes. Returns the
// compacted slices and the final gap column count.
func SetElimination(sets, gaps []*bitset.BitSet, alignmentArea, sequenceCount, alignmentLength, gapFreeColumns int) ([]*bitset.BitSet, []*bitset.BitSet, int) {
	currentGapColumns := GetGapColumns(gaps, alignmentLength, gapFreeColumns)
	for {
		toRemove := make(map[int]bool)
		for i, set := range sets {
			setSize := int(set.Count())
			if alignmentArea > (alignmentLength-currentGapColumns)*(sequenceCount-setSize) {
				toRemove[i] = true
			}
		}

		if len(toRemove) == 0 {
			break
		}

		sets, gaps = removeEntries(sets, gaps, toRemove)

		nextGapColumns := GetGapColumns(gaps, alignmentLength, gapFreeColumns)
		if nextGapColumns == currentGapColumns {
			break
		}
		currentGapColumns = nextGapColumns
	}
	return sets, gaps, currentGapColumns
}

// GetGapColumns returns the number of gapped columns not covered by
// any live entry, i.e. columns that can no longer become gap-free.
func GetGapColumns(gaps []*bitset.BitSet, alignmentLength, gapFreeColumns int) int {
	if len(gaps) == 0 {
		return 0
	}
	union := bitset.New(uint(alignmentLength))
	for _, gap := range gaps {
		union.InPlaceUnion(gap)
	}
	gappedColumns := alignmentLength - gapFreeColumns
	return gappedColumns - int(union.Count())
}
