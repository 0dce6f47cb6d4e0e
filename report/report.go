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

// Package report generates Markdown reports for eltrim runs.
package report

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/exascience/eltrim/align"
	"github.com/exascience/eltrim/fasta"
	"github.com/exascience/eltrim/internal"
)

// Config describes the options a run was invoked with.
type Config struct {
	InputPath             string
	OutputPath            string
	HeuristicMethod       align.Method
	MaxIterations         int
	ImprovementThreshold  float64
	ExcludedSeqsThreshold float64
	Refinement            bool
	KeepSequences         []string
	RetainedSequencesPath string
	ExcludedSequencesPath string
}

// Data holds the results a report is generated from.
type Data struct {
	InitialMetrics   align.Metrics
	HeuristicMetrics align.Metrics
	FinalMetrics     align.Metrics
	Iterations       []align.Iteration
	Headers          [][]byte
	Excluded         map[int]bool
}

// Write writes a Markdown report for an eltrim run to the given path.
func Write(path string, config Config, data Data) {
	file := internal.FileCreate(path)
	defer internal.Close(file)

	writer := bufio.NewWriter(file)

	internal.WriteString(writer, "# eltrim results\n\n")
	writeOptionsSection(writer, config, path)
	writeStatisticsSection(writer, data.InitialMetrics, data.FinalMetrics)
	writeIterationsSection(writer, data.Iterations, data.InitialMetrics)
	writeRefinementSection(writer, config, data.HeuristicMetrics, data.FinalMetrics)
	writeExcludedSection(writer, data.Headers, data.Excluded)

	if err := writer.Flush(); err != nil {
		log.Panic(err)
	}
}

// markdownTable renders rows with pipe-delimited columns padded to the
// widest cell per column.
type markdownTable struct {
	columns []string
	rows    [][]string
}

func (t *markdownTable) addRow(values ...string) {
	t.rows = append(t.rows, values)
}

func (t *markdownTable) write(w io.Writer) {
	widths := make([]int, len(t.columns))
	for i, column := range t.columns {
		widths[i] = len(column)
	}
	for _, row := range t.rows {
		for i, value := range row {
			if len(value) > widths[i] {
				widths[i] = len(value)
			}
		}
	}

	writeRow := func(values []string) {
		for i, value := range values {
			internal.WriteString(w, "| ")
			internal.WriteString(w, value)
			internal.WriteString(w, strings.Repeat(" ", widths[i]-len(value)+1))
		}
		internal.WriteString(w, "|\n")
	}

	writeRow(t.columns)
	for i := range t.columns {
		internal.WriteString(w, "|")
		internal.WriteString(w, strings.Repeat("-", widths[i]+2))
	}
	internal.WriteString(w, "|\n")
	for _, row := range t.rows {
		writeRow(row)
	}
	internal.WriteString(w, "\n")
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

func writeOptionsSection(w io.Writer, config Config, reportPath string) {
	internal.WriteString(w, "## Run options\n\n")

	maxIterations := strconv.Itoa(config.MaxIterations)
	if config.MaxIterations == math.MaxInt {
		maxIterations = "unlimited"
	}

	table := markdownTable{columns: []string{"Option", "Value"}}
	table.addRow("Input file", config.InputPath)
	table.addRow("Output file", config.OutputPath)
	table.addRow("Heuristic method", config.HeuristicMethod.String())
	table.addRow("Max iterations", maxIterations)
	table.addRow("Improvement threshold", formatFloat(config.ImprovementThreshold))
	table.addRow("Excluded sequences threshold", formatFloat(config.ExcludedSeqsThreshold))
	table.addRow("Refinement", strconv.FormatBool(config.Refinement))
	table.addRow("Keep sequences", strings.Join(config.KeepSequences, ", "))
	if config.RetainedSequencesPath != "" {
		table.addRow("Retained sequences file", config.RetainedSequencesPath)
	}
	if config.ExcludedSequencesPath != "" {
		table.addRow("Excluded sequences file", config.ExcludedSequencesPath)
	}
	table.addRow("Report file", reportPath)
	table.write(w)
}

func writeStatisticsSection(w io.Writer, initial, final align.Metrics) {
	internal.WriteString(w, "## Statistics\n\n")

	table := markdownTable{columns: []string{"Metric", "Before", "After", "Change"}}
	addStatistic := func(metric string, before, after int) {
		table.addRow(metric, strconv.Itoa(before), strconv.Itoa(after), fmt.Sprintf("%+d", after-before))
	}
	addStatistic("Number of sequences", initial.SequenceCount, final.SequenceCount)
	addStatistic("Alignment area", initial.AlignmentArea, final.AlignmentArea)
	addStatistic("Ungapped columns", initial.GapFreeColumns, final.GapFreeColumns)
	addStatistic("Total columns", initial.AlignmentLength, final.AlignmentLength)
	table.write(w)
}

func writeIterationsSection(w io.Writer, iterations []align.Iteration, initial align.Metrics) {
	internal.WriteString(w, "## Heuristic iterations\n\n")

	if len(iterations) == 0 {
		internal.WriteString(w, "No iterations performed. Alignment could not be improved.\n\n")
		return
	}

	table := markdownTable{columns: []string{
		"Iteration",
		"Excluded in this iteration",
		"Total excluded",
		"Ungapped columns",
		"Alignment area",
	}}
	cumulativeExcluded := 0
	for i, iteration := range iterations {
		cumulativeExcluded += len(iteration.Excluded)
		remainingSeqs := initial.SequenceCount - cumulativeExcluded
		freeColumns := 0
		if remainingSeqs > 0 {
			freeColumns = iteration.AlignmentArea / remainingSeqs
		}
		table.addRow(
			strconv.Itoa(i+1),
			strconv.Itoa(len(iteration.Excluded)),
			strconv.Itoa(cumulativeExcluded),
			strconv.Itoa(freeColumns),
			strconv.Itoa(iteration.AlignmentArea),
		)
	}
	table.write(w)
}

func writeRefinementSection(w io.Writer, config Config, heuristic, final align.Metrics) {
	if !config.Refinement {
		return
	}

	internal.WriteString(w, "## Refinement\n\n")

	if heuristic.AlignmentArea == final.AlignmentArea {
		internal.WriteString(w, fmt.Sprintf(
			"The solution found with the heuristic method is optimal, as one determined by the branch-and-bound algorithm. The alignment area remains %d.\n\n",
			heuristic.AlignmentArea))
	} else {
		internal.WriteString(w, fmt.Sprintf(
			"The heuristic solution was improved by the branch-and-bound algorithm. The alignment area increased from %d to %d.\n\n",
			heuristic.AlignmentArea, final.AlignmentArea))
	}
}

func writeExcludedSection(w io.Writer, headers [][]byte, excluded map[int]bool) {
	internal.WriteString(w, "## Excluded sequences\n\n")

	if len(excluded) == 0 {
		internal.WriteString(w, "No sequences were excluded.\n")
		return
	}

	indices := make([]int, 0, len(excluded))
	for idx := range excluded {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		internal.WriteString(w, "- ")
		internal.WriteString(w, fasta.Accession(headers[idx]))
		internal.WriteString(w, "\n")
	}
}
