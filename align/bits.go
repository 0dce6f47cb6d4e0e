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
	"log"
	mathbits "math/bits"

	"github.com/bits-and-blooms/bitset"
)

// packBools packs a boolean vector into a bit set of the same length.
func packBools(bools []bool) *bitset.BitSet {
	packed := bitset.New(uint(len(bools)))
	for i, b := range bools {
		if b {
			packed.Set(uint(i))
		}
	}
	return packed
}

// setBitIndices returns the indices of all set bits below count, in
// ascending order. Trailing padding bits at count or beyond are ignored.
func setBitIndices(b *bitset.BitSet, count int) []int {
	indices := make([]int, 0, b.Count())
	for i, ok := b.NextSet(0); ok && int(i) < count; i, ok = b.NextSet(i + 1) {
		indices = append(indices, int(i))
	}
	return indices
}

// unionCardinality3 returns the population count of the union of three
// bit sets without allocating an intermediate set. All three sets must
// have the same length.
func unionCardinality3(a, b, c *bitset.BitSet) int {
	wordsA, wordsB, wordsC := a.Bytes(), b.Bytes(), c.Bytes()
	if len(wordsB) != len(wordsA) || len(wordsC) != len(wordsA) {
		log.Panic("mismatched bit set lengths in three-way union")
	}
	count := 0
	for i, word := range wordsA {
		count += mathbits.OnesCount64(word | wordsB[i] | wordsC[i])
	}
	return count
}

func countTrue(bools []bool) (count int) {
	for _, b := range bools {
		if b {
			count++
		}
	}
	return count
}
