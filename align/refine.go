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
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Ternary decision states for the branch-and-bound search.
const (
	undecided   byte = 'X'
	excluded    byte = '1'
	notExcluded byte = '0'
)

// RefinementResult is the outcome of a branch-and-bound refinement.
type RefinementResult struct {
	Metrics  Metrics
	Excluded map[int]bool
}

// RunBranchAndBound searches for a provably optimal exclusion set. It
// re-derives reduced pattern entries from the original, unexcluded
// data and uses the heuristic's final area as the initial bound, so it
// only needs to prove that a strictly better optimum exists. When it
// cannot, the heuristic metrics are returned with no exclusions.
func RunBranchAndBound(origSets, origGaps []*bitset.BitSet, metrics Metrics, keepPattern []bool, numSequences int) RefinementResult {
	keptGaps := countTrue(keepPattern)
	gapFreeColumns := metrics.AlignmentLength - len(origSets) - keptGaps

	translation := make([]int, numSequences)
	for i := range translation {
		translation[i] = i
	}

	workingSets, workingGaps := createWorkingSets(origSets, origGaps, nil, translation, numSequences)

	currentSets, currentGaps, _ := CongruentSetJoining(workingSets, workingGaps, metrics.AlignmentArea, numSequences, metrics.AlignmentLength)
	SubsetJoining(currentSets, currentGaps)
	currentSets, currentGaps, gapColumns := SetElimination(currentSets, currentGaps, metrics.AlignmentArea, numSequences, metrics.AlignmentLength, gapFreeColumns)

	dislikes := findDislikes(currentSets, metrics.AlignmentArea, numSequences, metrics.AlignmentLength, gapColumns)

	orderedSets, orderedGaps, orderedDislikes := reorderSetsForSearch(currentSets, currentGaps, dislikes)

	bestArea, solutions := branchAndBoundSearch(orderedSets, orderedGaps, orderedDislikes, metrics.AlignmentArea, gapFreeColumns, numSequences)

	return extractBestSolution(solutions, bestArea, numSequences, metrics)
}

// searchFrame is one pending decision state. Frames are cloned on
// push; sibling branches never observe each other's mutations.
type searchFrame struct {
	decisions []byte
	pointer   int
	unionSets *bitset.BitSet
	unionGaps *bitset.BitSet
}

// branchAndBoundSearch runs a depth-first search over ternary
// exclusion decisions with an explicit stack, pruned by a suffix-union
// upper bound. It returns the best area found and all tied solutions.
func branchAndBoundSearch(orderedSets, orderedGaps []*bitset.BitSet, orderedDislikes [][]int, initialBestArea, gapFreeColumns, numSequences int) (int, []*bitset.BitSet) {
	setsCount := len(orderedSets)
	gapLength := uint(1)
	if setsCount > 0 {
		gapLength = orderedGaps[0].Len()
	}

	// suffixUnions[i] is the union of the gap bit sets of all entries
	// from position i onward.
	suffixUnions := make([]*bitset.BitSet, setsCount+1)
	suffixUnions[setsCount] = bitset.New(gapLength)
	for i := setsCount - 1; i >= 0; i-- {
		suffixUnions[i] = suffixUnions[i+1].Clone()
		suffixUnions[i].InPlaceUnion(orderedGaps[i])
	}

	decisions := make([]byte, setsCount)
	for i := range decisions {
		decisions[i] = undecided
	}
	stack := []searchFrame{{
		decisions: decisions,
		pointer:   0,
		unionSets: bitset.New(uint(numSequences)),
		unionGaps: bitset.New(gapLength),
	}}

	var solutions []*bitset.BitSet
	bestArea := initialBestArea

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		decisions, pointer, unionSets, unionGaps := frame.decisions, frame.pointer, frame.unionSets, frame.unionGaps

		for {
			testUnionGapsCount := int(unionGaps.UnionCardinality(suffixUnions[pointer]))
			testScore := (gapFreeColumns + testUnionGapsCount) * (numSequences - int(unionSets.Count()))

			if testScore < bestArea {
				break
			}

			for pointer < setsCount && decisions[pointer] != undecided {
				pointer++
			}

			if pointer < setsCount {
				set := orderedSets[pointer]

				if unionSets.IsSuperSet(set) {
					// Free move: excluding this entry adds no new sequences.
					unionGaps.InPlaceUnion(orderedGaps[pointer])
					decisions[pointer] = excluded
					pointer++
					continue
				}

				decisionsNotExcluded := make([]byte, setsCount)
				copy(decisionsNotExcluded, decisions)
				decisionsNotExcluded[pointer] = notExcluded
				stack = append(stack, searchFrame{
					decisions: decisionsNotExcluded,
					pointer:   pointer + 1,
					unionSets: unionSets.Clone(),
					unionGaps: unionGaps.Clone(),
				})

				decisions[pointer] = excluded
				unionSets.InPlaceUnion(set)
				unionGaps.InPlaceUnion(orderedGaps[pointer])

				for _, bad := range orderedDislikes[pointer] {
					if bad > pointer {
						decisions[bad] = notExcluded
					}
				}
				pointer++
				continue
			}

			score := (gapFreeColumns + int(unionGaps.Count())) * (numSequences - int(unionSets.Count()))
			if score > bestArea {
				bestArea = score
				solutions = append(solutions[:0], unionSets.Clone())
				log.Printf("Refinement algorithm improved the alignment: the area increased to %d with %d sequences", bestArea, numSequences-int(unionSets.Count()))
			} else if score == bestArea {
				solutions = append(solutions, unionSets.Clone())
			}
			break
		}
	}

	return bestArea, solutions
}

// extractBestSolution picks, among all tied best-area solutions, the
// one excluding the fewest sequences. When there is no solution with a
// nonzero remaining sequence count, the heuristic metrics are returned
// unchanged with an empty exclusion set.
func extractBestSolution(solutions []*bitset.BitSet, bestArea, numSequences int, metrics Metrics) RefinementResult {
	var best *bitset.BitSet
	for _, solution := range solutions {
		if best == nil || solution.Count() < best.Count() {
			best = solution
		}
	}

	if best != nil {
		excludedIndices := setBitIndices(best, numSequences)
		excludedSet := make(map[int]bool, len(excludedIndices))
		for _, idx := range excludedIndices {
			excludedSet[idx] = true
		}

		remainingSeqs := numSequences - len(excludedSet)
		if remainingSeqs > 0 {
			return RefinementResult{
				Metrics: Metrics{
					SequenceCount:   remainingSeqs,
					GapFreeColumns:  bestArea / remainingSeqs,
					AlignmentArea:   bestArea,
					AlignmentLength: metrics.AlignmentLength,
				},
				Excluded: excludedSet,
			}
		}
	}

	return RefinementResult{
		Metrics:  metrics,
		Excluded: make(map[int]bool),
	}
}

// findDislikes computes the pairwise incompatibility lists: two
// entries dislike each other when one's sequence set is a subset of
// the other's (their union adds nothing) or when their union's
// best-case area cannot beat the current bound.
func findDislikes(sets []*bitset.BitSet, alignmentArea, sequenceCount, alignmentLength, gapColumns int) [][]int {
	dislikes := make([][]int, len(sets))
	setsCount := len(sets)
	for i := 0; i < setsCount; i++ {
		setI := sets[i]
		setIBits := int(setI.Count())
		for j := i + 1; j < setsCount; j++ {
			setJ := sets[j]
			unionSize := int(setI.UnionCardinality(setJ))
			if unionSize == setIBits || unionSize == int(setJ.Count()) {
				dislikes[i] = append(dislikes[i], j)
				dislikes[j] = append(dislikes[j], i)
				continue
			}

			if alignmentArea > (alignmentLength-gapColumns)*(sequenceCount-unionSize) {
				dislikes[i] = append(dislikes[i], j)
				dislikes[j] = append(dislikes[j], i)
			}
		}
	}
	return dislikes
}

// reorderSetsForSearch sorts the entries by dislike degree, then set
// size, then covered-column count, all descending, so the most
// constrained and most impactful entries are branched on first.
func reorderSetsForSearch(sets, gaps []*bitset.BitSet, dislikes [][]int) ([]*bitset.BitSet, []*bitset.BitSet, [][]int) {
	indices := make([]int, len(sets))
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(x, y int) bool {
		a, b := indices[x], indices[y]
		if len(dislikes[a]) != len(dislikes[b]) {
			return len(dislikes[a]) > len(dislikes[b])
		}
		if sets[a].Count() != sets[b].Count() {
			return sets[a].Count() > sets[b].Count()
		}
		return gaps[a].Count() > gaps[b].Count()
	})

	position := make([]int, len(sets))
	for newIdx, oldIdx := range indices {
		position[oldIdx] = newIdx
	}

	orderedSets := make([]*bitset.BitSet, len(sets))
	orderedGaps := make([]*bitset.BitSet, len(sets))
	orderedDislikes := make([][]int, len(sets))
	for newIdx, oldIdx := range indices {
		orderedSets[newIdx] = sets[oldIdx]
		orderedGaps[newIdx] = gaps[oldIdx]
		mapped := make([]int, 0, len(dislikes[oldIdx]))
		for _, d := range dislikes[oldIdx] {
			mapped = append(mapped, position[d])
		}
		orderedDislikes[newIdx] = mapped
	}

	return orderedSets, orderedGaps, orderedDislikes
}
