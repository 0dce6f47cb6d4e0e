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

// Package fasta implements reading and writing of aligned multi-record
// FASTA files, and the sequence/header filtering applied to the
// optimization results.
package fasta

import (
	"bufio"
	"log"
	"unicode"

	"github.com/exascience/eltrim/align"
	"github.com/exascience/eltrim/internal"
)

// Alignment holds a parsed multiple sequence alignment.
type Alignment struct {
	Headers       [][]byte
	Sequences     [][]byte
	LongestLength int
	KeepIndices   map[int]bool
}

// Accession returns the first whitespace-delimited word of a FASTA
// header, or the empty string if there is none.
func Accession(header []byte) string {
	i := 0
	for ; i < len(header); i++ {
		if unicode.IsSpace(rune(header[i])) {
			break
		}
	}
	return string(header[:i])
}

// ParseAlignment sequentially parses an aligned FASTA file.
//
// Sequence lines are concatenated per record with whitespace removed.
// The keepSequences accessions are resolved to sequence indices;
// accessions that do not occur in the input are reported as warnings,
// as are unequal sequence lengths.
func ParseAlignment(filename string, keepSequences []string) *Alignment {
	f := internal.FileOpen(filename)
	defer internal.Close(f)

	scanner := bufio.NewScanner(f)

	if !scanner.Scan() {
		log.Panicf("empty fasta file %v", filename)
	}
	b := scanner.Bytes()
	for len(b) == 0 {
		if !scanner.Scan() {
			log.Panicf("empty fasta file %v", filename)
		}
		b = scanner.Bytes()
	}
	if b[0] != '>' {
		log.Panicf("invalid fasta file %v - missing first header", filename)
	}

	aln := &Alignment{KeepIndices: make(map[int]bool)}
	aln.Headers = append(aln.Headers, append([]byte(nil), b[1:]...))
	var seq []byte

	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			aln.pushSequence(seq)
			aln.Headers = append(aln.Headers, append([]byte(nil), b[1:]...))
			seq = nil
		} else {
			for _, c := range b {
				if !unicode.IsSpace(rune(c)) {
					seq = append(seq, c)
				}
			}
		}
	}
	aln.pushSequence(seq)

	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}

	minLength := aln.LongestLength
	for _, seq := range aln.Sequences {
		if len(seq) < minLength {
			minLength = len(seq)
		}
	}
	if minLength != aln.LongestLength {
		log.Printf("Warning: Sequences have different lengths (%v to %v). Shorter sequences will be padded with gaps.", minLength, aln.LongestLength)
	}

	keepSet := make(map[string]bool, len(keepSequences))
	for _, accession := range keepSequences {
		keepSet[accession] = true
	}
	foundKeepSequence := make(map[string]bool)
	for idx, header := range aln.Headers {
		if accession := Accession(header); accession != "" && keepSet[accession] {
			aln.KeepIndices[idx] = true
			foundKeepSequence[accession] = true
		}
	}
	for _, accession := range keepSequences {
		if !foundKeepSequence[accession] {
			log.Printf("Warning: Must-retain sequence '%v' was not found in the input alignment.", accession)
		}
	}

	return aln
}

func (aln *Alignment) pushSequence(seq []byte) {
	if len(seq) > aln.LongestLength {
		aln.LongestLength = len(seq)
	}
	aln.Sequences = append(aln.Sequences, seq)
}

// Pad extends every sequence to the longest length with gap characters
// so that all rows of the alignment have the same width.
func (aln *Alignment) Pad() {
	for i, seq := range aln.Sequences {
		for len(seq) < aln.LongestLength {
			seq = append(seq, '-')
		}
		aln.Sequences[i] = seq
	}
}

// FastaLineWidth is the maximum width of sequence lines written by
// WriteAlignment.
const FastaLineWidth = 80

// WriteAlignment writes sequences in FASTA format, wrapping sequence
// lines at FastaLineWidth columns.
func WriteAlignment(filename string, headers, sequences [][]byte) {
	file := internal.FileCreate(filename)
	defer internal.Close(file)

	writer := bufio.NewWriter(file)
	for i, header := range headers {
		internal.WriteString(writer, ">")
		internal.Write(writer, header)
		internal.WriteString(writer, "\n")
		seq := sequences[i]
		for start := 0; start < len(seq); start += FastaLineWidth {
			end := start + FastaLineWidth
			if end > len(seq) {
				end = len(seq)
			}
			internal.Write(writer, seq[start:end])
			internal.WriteString(writer, "\n")
		}
	}
	if err := writer.Flush(); err != nil {
		log.Panic(err)
	}
}

// WriteHeadersList writes the accessions of either the retained or the
// excluded sequences, one per line.
func WriteHeadersList(filename string, headers [][]byte, excluded map[int]bool, retained bool) {
	file := internal.FileCreate(filename)
	defer internal.Close(file)

	writer := bufio.NewWriter(file)
	for idx, header := range headers {
		if excluded[idx] != retained {
			internal.WriteString(writer, Accession(header))
			internal.WriteString(writer, "\n")
		}
	}
	if err := writer.Flush(); err != nil {
		log.Panic(err)
	}
}

// RemoveAllGapColumns filters out the excluded sequences and drops
// every column that has become all-gap in the remaining ones. It
// returns the filtered sequences and their headers.
func RemoveAllGapColumns(sequences, headers [][]byte, excluded map[int]bool) ([][]byte, [][]byte) {
	if len(sequences) == 0 {
		return nil, nil
	}

	var includedIndices []int
	for idx := range sequences {
		if !excluded[idx] {
			includedIndices = append(includedIndices, idx)
		}
	}
	if len(includedIndices) == 0 {
		return nil, nil
	}

	seqLength := len(sequences[0])
	gapColumns := make([]bool, seqLength)
	for i := range gapColumns {
		gapColumns[i] = true
	}
	for _, idx := range includedIndices {
		for pos, b := range sequences[idx] {
			if !align.IsGap(b) {
				gapColumns[pos] = false
			}
		}
	}

	finalSequences := make([][]byte, 0, len(includedIndices))
	finalHeaders := make([][]byte, 0, len(includedIndices))
	for _, idx := range includedIndices {
		newSeq := make([]byte, 0, len(sequences[idx]))
		for pos, b := range sequences[idx] {
			if !gapColumns[pos] {
				newSeq = append(newSeq, b)
			}
		}
		finalSequences = append(finalSequences, newSeq)
		finalHeaders = append(finalHeaders, headers[idx])
	}

	return finalSequences, finalHeaders
}
