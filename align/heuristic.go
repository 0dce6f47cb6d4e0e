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
	"strconv"

	"github.com/bits-and-blooms/bitset"
)

// Method selects how many pattern entries may be unioned into a single
// candidate exclusion during the heuristic search.
type Method int

// The available heuristic methods.
const (
	NoSynergy       Method = 1
	PairwiseSynergy Method = 2
	TripleSynergy   Method = 3
)

func (m Method) String() string {
	return strconv.Itoa(int(m))
}

// Config controls the heuristic search. MaxIterations caps the number
// of accepted exclusion rounds; ImprovementThreshold stops the search
// when the relative area improvement falls below it (only checked when
// nonzero); ExcludedSeqsThreshold stops the search when the fraction
// of excluded sequences reaches it.
type Config struct {
	Method                Method
	MaxIterations         int
	ImprovementThreshold  float64
	ExcludedSeqsThreshold float64
}

// Iteration records one accepted exclusion round: the original indices
// of the sequences excluded in that round, and the resulting area.
type Iteration struct {
	Excluded      []int
	AlignmentArea int
}

// RunHeuristic greedily excludes sequence sets until no candidate
// improves the alignment area or one of the configured thresholds
// stops the search. It mutates state and metrics in place and returns
// the per-iteration log.
func RunHeuristic(state *SetData, metrics *Metrics, config Config, keepPattern []bool, numOrigSeqs int) []Iteration {
	keptGapsCount := countTrue(keepPattern)
	var iterations []Iteration

	for iterationsCount := 0; ; iterationsCount++ {
		if iterationsCount >= config.MaxIterations {
			break
		}

		workingSets, workingGaps := createWorkingSets(state.Sets, state.Gaps, state.Excluded, state.Translation, numOrigSeqs)

		sequenceCount := len(state.Translation)
		gapFreeColumns := metrics.AlignmentLength - len(workingSets) - keptGapsCount

		metrics.SequenceCount = sequenceCount
		metrics.GapFreeColumns = gapFreeColumns

		currentSets, currentGaps, _ := CongruentSetJoining(workingSets, workingGaps, metrics.AlignmentArea, metrics.SequenceCount, metrics.AlignmentLength)
		SubsetJoining(currentSets, currentGaps)

		if len(currentSets) == 0 {
			break
		}

		bestSet, newAlignmentArea := findGreatestImpactSet(currentSets, currentGaps, metrics.AlignmentArea, sequenceCount, gapFreeColumns, config.Method)

		if config.ImprovementThreshold != 0 && metrics.AlignmentArea != 0 {
			improvement := (float64(newAlignmentArea) - float64(metrics.AlignmentArea)) / float64(metrics.AlignmentArea)
			if improvement < config.ImprovementThreshold {
				log.Printf("Early stopping: relative improvement (%.4f) is below threshold (%.4f)", improvement, config.ImprovementThreshold)
				break
			}
		}

		excludedFraction := float64(len(state.Excluded)) / float64(numOrigSeqs)
		if excludedFraction >= config.ExcludedSeqsThreshold {
			log.Printf("Early stopping: excluded sequence fraction (%.4f) reached threshold (%.4f)", excludedFraction, config.ExcludedSeqsThreshold)
			break
		}

		if metrics.AlignmentArea >= newAlignmentArea {
			break
		}

		excludedIndices := setBitIndices(bestSet, sequenceCount)
		exseq := make([]int, 0, len(excludedIndices))
		for _, pointer := range excludedIndices {
			origIdx := state.Translation[pointer]
			state.Excluded[origIdx] = true
			exseq = append(exseq, origIdx)
		}

		state.Translation = state.Translation[:0]
		for i := 0; i < numOrigSeqs; i++ {
			if !state.Excluded[i] {
				state.Translation = append(state.Translation, i)
			}
		}

		metrics.SequenceCount = len(state.Translation)
		metrics.AlignmentArea = newAlignmentArea
		iterations = append(iterations, Iteration{Excluded: exseq, AlignmentArea: newAlignmentArea})
	}

	return iterations
}

// candidateAccumulator tracks the best exclusion candidate seen so
// far. On equal efficiency, a candidate with an equal or larger
// covered-column count replaces the current best; together with the
// fixed scan order this makes the tie-break deterministic, and
// downstream report expectations depend on it.
type candidateAccumulator struct {
	sequenceCount  int
	gapFreeColumns int
	currentArea    int
	bestSet        *bitset.BitSet
	bestImpact     int
	bestEfficiency float64
	bestGapCount   int
}

func (acc *candidateAccumulator) consider(setSize, gapCount int, build func() *bitset.BitSet) {
	impact := (acc.sequenceCount - setSize) * (acc.gapFreeColumns + gapCount)
	efficiency := (float64(impact) - float64(acc.currentArea)) / float64(setSize)

	if efficiency > acc.bestEfficiency ||
		(efficiency == acc.bestEfficiency && gapCount >= acc.bestGapCount) {
		acc.bestEfficiency = efficiency
		acc.bestImpact = impact
		acc.bestSet = build()
		acc.bestGapCount = gapCount
	}
}

// findGreatestImpactSet evaluates every candidate exclusion (single
// entries, and unions of two or three entries depending on the method)
// and returns the one with the greatest efficiency together with the
// alignment area its exclusion would produce.
func findGreatestImpactSet(sets, gaps []*bitset.BitSet, currentArea, sequenceCount, gapFreeColumns int, method Method) (*bitset.BitSet, int) {
	acc := candidateAccumulator{
		sequenceCount:  sequenceCount,
		gapFreeColumns: gapFreeColumns,
		currentArea:    currentArea,
		bestEfficiency: -1,
	}

	for i, setI := range sets {
		setI := setI
		gapI := gaps[i]
		acc.consider(int(setI.Count()), int(gapI.Count()), func() *bitset.BitSet {
			return setI.Clone()
		})

		if method >= PairwiseSynergy {
			for j := 0; j < i; j++ {
				setJ, gapJ := sets[j], gaps[j]
				acc.consider(int(setI.UnionCardinality(setJ)), int(gapI.UnionCardinality(gapJ)), func() *bitset.BitSet {
					return setI.Union(setJ)
				})

				if method >= TripleSynergy {
					for k := 0; k < j; k++ {
						setK := sets[k]
						acc.consider(unionCardinality3(setI, setJ, setK), unionCardinality3(gapI, gapJ, gaps[k]), func() *bitset.BitSet {
							union := setI.Union(setJ)
							union.InPlaceUnion(setK)
							return union
						})
					}
				}
			}
		}
	}

	return acc.bestSet, acc.bestImpact
}
