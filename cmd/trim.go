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

package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/exascience/eltrim/align"
	"github.com/exascience/eltrim/fasta"
	"github.com/exascience/eltrim/report"
)

// TrimHelp is the help string for the trim command.
const TrimHelp = "\ntrim parameters:\n" +
	"eltrim trim alignment-file alignment-output-file\n" +
	"[--heuristic-method number]\n" +
	"[--max-iterations number]\n" +
	"[--refinement]\n" +
	"[--improvement-threshold number]\n" +
	"[--excluded-seqs-threshold number]\n" +
	"[--keep-sequence accession]\n" +
	"[--report file]\n" +
	"[--retained-sequences file]\n" +
	"[--excluded-sequences file]\n" +
	"[--log-path path]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	HelpMessage

// stringList collects the values of a repeatable command line flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// Trim implements the eltrim trim command.
func Trim() {
	var (
		heuristicMethod                             int
		maxIterations                               int
		refinement                                  bool
		improvementThreshold, excludedSeqsThreshold float64
		keepSequences                               stringList
		reportFile, retainedFile, excludedFile      string
		logPath, profile                            string
		timed                                       bool
	)

	var flags flag.FlagSet

	flags.IntVar(&heuristicMethod, "heuristic-method", 2, "heuristic method for selecting candidate exclusions (1, 2, or 3)")
	flags.IntVar(&maxIterations, "max-iterations", -1, "maximum number of heuristic iterations (-1 for unlimited)")
	flags.BoolVar(&refinement, "refinement", false, "refine the heuristic solution with the branch-and-bound algorithm")
	flags.Float64Var(&improvementThreshold, "improvement-threshold", 0.0, "stop iterating when the relative improvement falls below this threshold")
	flags.Float64Var(&excludedSeqsThreshold, "excluded-seqs-threshold", 1.0, "stop iterating when the fraction of excluded sequences reaches this threshold")
	flags.Var(&keepSequences, "keep-sequence", "accession of a sequence to always retain (can be given multiple times)")
	flags.StringVar(&reportFile, "report", "", "write a Markdown report to the specified file")
	flags.StringVar(&retainedFile, "retained-sequences", "", "write the accessions of the retained sequences to the specified file")
	flags.StringVar(&excludedFile, "excluded-sequences", "", "write the accessions of the excluded sequences to the specified file")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")

	parseFlags(flags, 4, TrimHelp)

	input := getFilename(os.Args[2], TrimHelp)
	output := getFilename(os.Args[3], TrimHelp)

	setLogOutput(logPath)

	sanityChecksFailed := !checkExist("", input)
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if reportFile != "" && !checkCreate("--report", reportFile) {
		sanityChecksFailed = true
	}
	if retainedFile != "" && !checkCreate("--retained-sequences", retainedFile) {
		sanityChecksFailed = true
	}
	if excludedFile != "" && !checkCreate("--excluded-sequences", excludedFile) {
		sanityChecksFailed = true
	}
	if heuristicMethod < 1 || heuristicMethod > 3 {
		log.Printf("Error: Invalid heuristic method %v. Valid methods are 1, 2, and 3.\n", heuristicMethod)
		sanityChecksFailed = true
	}
	if maxIterations < -1 {
		log.Printf("Error: Invalid number of iterations %v.\n", maxIterations)
		sanityChecksFailed = true
	}
	if improvementThreshold < 0 {
		log.Printf("Error: Improvement threshold %v must be non-negative.\n", improvementThreshold)
		sanityChecksFailed = true
	}
	if excludedSeqsThreshold < 0 {
		log.Printf("Error: Excluded sequences threshold %v must be non-negative.\n", excludedSeqsThreshold)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, TrimHelp)
		os.Exit(1)
	}

	if maxIterations == -1 {
		maxIterations = math.MaxInt
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " trim ", input, " ", output)
	fmt.Fprint(&command, " --heuristic-method ", heuristicMethod)
	if maxIterations != math.MaxInt {
		fmt.Fprint(&command, " --max-iterations ", maxIterations)
	}
	if refinement {
		fmt.Fprint(&command, " --refinement")
	}
	if improvementThreshold != 0 {
		fmt.Fprint(&command, " --improvement-threshold ", improvementThreshold)
	}
	if excludedSeqsThreshold != 1.0 {
		fmt.Fprint(&command, " --excluded-seqs-threshold ", excludedSeqsThreshold)
	}
	for _, accession := range keepSequences {
		fmt.Fprint(&command, " --keep-sequence ", accession)
	}
	if reportFile != "" {
		fmt.Fprint(&command, " --report ", reportFile)
	}
	if retainedFile != "" {
		fmt.Fprint(&command, " --retained-sequences ", retainedFile)
	}
	if excludedFile != "" {
		fmt.Fprint(&command, " --excluded-sequences ", excludedFile)
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if profile != "" {
		fmt.Fprint(&command, " --profile ", profile)
	}

	log.Println(ProgramMessage)
	log.Println("Executing command:\n", command.String())

	heuristicConfig := align.Config{
		Method:                align.Method(heuristicMethod),
		MaxIterations:         maxIterations,
		ImprovementThreshold:  improvementThreshold,
		ExcludedSeqsThreshold: excludedSeqsThreshold,
	}

	timedRun(timed, profile, "Trimming alignment.", 1, func() {
		runTrim(input, output, heuristicConfig, refinement, keepSequences, reportFile, retainedFile, excludedFile)
	})
}

func runTrim(input, output string, heuristicConfig align.Config, refinement bool, keepSequences []string, reportFile, retainedFile, excludedFile string) {
	aln := fasta.ParseAlignment(input, keepSequences)
	numSequences := len(aln.Headers)
	aln.Pad()

	gapMatrix := align.CreateGapMatrix(aln.Sequences, aln.LongestLength)
	origSets, origGaps, keepPattern := align.CreateSets(gapMatrix, aln.KeepIndices, aln.LongestLength)

	keptGapsCount := 0
	for _, kept := range keepPattern {
		if kept {
			keptGapsCount++
		}
	}
	initialGapFreeColumns := aln.LongestLength - len(origSets) - keptGapsCount

	initialMetrics := align.Metrics{
		SequenceCount:   numSequences,
		GapFreeColumns:  initialGapFreeColumns,
		AlignmentArea:   initialGapFreeColumns * numSequences,
		AlignmentLength: aln.LongestLength,
	}

	log.Printf("Loaded input alignment (sequences: %d, length: %d, initial area: %d)",
		initialMetrics.SequenceCount, initialMetrics.AlignmentLength, initialMetrics.AlignmentArea)

	metrics := initialMetrics
	state := align.NewSetData(origSets, origGaps, numSequences)

	log.Printf("Processing alignment (heuristic method: %v)", heuristicConfig.Method)
	iterations := align.RunHeuristic(state, &metrics, heuristicConfig, keepPattern, numSequences)

	for i, iteration := range iterations {
		names := make([]string, 0, len(iteration.Excluded))
		for _, idx := range iteration.Excluded {
			names = append(names, fasta.Accession(aln.Headers[idx]))
		}
		log.Printf("Iteration %d: alignment area is %d, %d sequence(s) excluded (%s)",
			i+1, iteration.AlignmentArea, len(iteration.Excluded), strings.Join(names, ", "))
	}

	heuristicMetrics := metrics
	finalExcluded := state.Excluded
	finalMetrics := metrics

	if refinement {
		log.Println("Starting refinement using the branch-and-bound algorithm to find the optimal solution")
		result := align.RunBranchAndBound(origSets, origGaps, heuristicMetrics, keepPattern, numSequences)
		if result.Metrics.AlignmentArea > finalMetrics.AlignmentArea {
			finalMetrics = result.Metrics
			finalExcluded = result.Excluded
		}
	}

	excludedCount := initialMetrics.SequenceCount - finalMetrics.SequenceCount
	if excludedCount == 0 {
		log.Printf("No sequences were excluded. Alignment area remained %d (%d sequences)",
			initialMetrics.AlignmentArea, initialMetrics.SequenceCount)
	} else {
		log.Printf("A total of %d sequences were excluded. Alignment area improved by %d (from %d to %d)",
			excludedCount, finalMetrics.AlignmentArea-initialMetrics.AlignmentArea,
			initialMetrics.AlignmentArea, finalMetrics.AlignmentArea)
	}

	finalSequences, finalHeaders := fasta.RemoveAllGapColumns(aln.Sequences, aln.Headers, finalExcluded)

	if len(finalSequences) > 0 {
		finalLength := 0
		for _, seq := range finalSequences {
			if len(seq) > finalLength {
				finalLength = len(seq)
			}
		}
		finalMetrics.AlignmentLength = finalLength
		finalMetrics.GapFreeColumns = finalMetrics.AlignmentArea / finalMetrics.SequenceCount
	}

	fasta.WriteAlignment(output, finalHeaders, finalSequences)
	log.Println("Output written to", output)

	if reportFile != "" {
		report.Write(reportFile, report.Config{
			InputPath:             input,
			OutputPath:            output,
			HeuristicMethod:       heuristicConfig.Method,
			MaxIterations:         heuristicConfig.MaxIterations,
			ImprovementThreshold:  heuristicConfig.ImprovementThreshold,
			ExcludedSeqsThreshold: heuristicConfig.ExcludedSeqsThreshold,
			Refinement:            refinement,
			KeepSequences:         keepSequences,
			RetainedSequencesPath: retainedFile,
			ExcludedSequencesPath: excludedFile,
		}, report.Data{
			InitialMetrics:   initialMetrics,
			HeuristicMetrics: heuristicMetrics,
			FinalMetrics:     finalMetrics,
			Iterations:       iterations,
			Headers:          aln.Headers,
			Excluded:         finalExcluded,
		})
		log.Println("Report written to", reportFile)
	}

	if retainedFile != "" {
		fasta.WriteHeadersList(retainedFile, aln.Headers, finalExcluded, true)
		log.Println("List of retained sequences written to", retainedFile)
	}
	if excludedFile != "" {
		fasta.WriteHeadersList(excludedFile, aln.Headers, finalExcluded, false)
		log.Println("List of excluded sequences written to", excludedFile)
	}
}
