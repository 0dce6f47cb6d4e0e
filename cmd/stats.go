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
	"flag"
	"fmt"
	"os"

	"github.com/exascience/eltrim/align"
	"github.com/exascience/eltrim/fasta"
)

// StatsHelp is the help string for the stats command.
const StatsHelp = "\nstats parameters:\n" +
	"eltrim stats alignment-file\n" +
	"[--log-path path]\n" +
	HelpMessage

// Stats implements the eltrim stats command. It prints the alignment
// metrics of a FASTA file without modifying it.
func Stats() {
	var logPath string

	var flags flag.FlagSet

	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 3, StatsHelp)

	input := getFilename(os.Args[2], StatsHelp)

	setLogOutput(logPath)

	if !checkExist("", input) {
		fmt.Fprint(os.Stderr, StatsHelp)
		os.Exit(1)
	}

	aln := fasta.ParseAlignment(input, nil)
	numSequences := len(aln.Headers)
	aln.Pad()

	gapMatrix := align.CreateGapMatrix(aln.Sequences, aln.LongestLength)
	sets, _, _ := align.CreateSets(gapMatrix, aln.KeepIndices, aln.LongestLength)
	gapFreeColumns := aln.LongestLength - len(sets)

	fmt.Println("Sequences:", numSequences)
	fmt.Println("Alignment length:", aln.LongestLength)
	fmt.Println("Ungapped columns:", gapFreeColumns)
	fmt.Println("Alignment area:", gapFreeColumns*numSequences)
}
