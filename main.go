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

// elTrim trims a multiple sequence alignment by excluding a minimal
// set of sequences so that the alignment area - the number of
// fully-gap-free columns times the number of retained sequences - is
// maximized.
//
// Please see https://github.com/exascience/eltrim for a documentation
// of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/eltrim/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: trim, stats")
	fmt.Fprint(os.Stderr, "\n", cmd.TrimHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.StatsHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "trim":
		cmd.Trim()
	case "stats":
		cmd.Stats()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command:", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}
