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

// Package internal provides helper functionality that is used
// in different eltrim packages, but should not be visible
// outside of eltrim.
package internal

import (
	"io"
	"log"
	"os"
)

// FileOpen is os.Open with panics in place of errors
func FileOpen(name string) *os.File {
	file, err := os.Open(name)
	if err != nil {
		log.Panic(err)
	}
	return file
}

// FileCreate is os.Create with panics in place of errors
func FileCreate(name string) *os.File {
	file, err := os.Create(name)
	if err != nil {
		log.Panic(err)
	}
	return file
}

// Close is closer.Close() with panics in place of errors
func Close(closer io.Closer) {
	if err := closer.Close(); err != nil {
		log.Panic(err)
	}
}

// MkdirAll is os.MkdirAll with panics in place of errors
func MkdirAll(path string, perm os.FileMode) {
	if err := os.MkdirAll(path, perm); err != nil {
		log.Panic(err)
	}
}

// Write is w.Write(b) with panics in place of errors
func Write(w io.Writer, b []byte) int {
	n, err := w.Write(b)
	if err != nil {
		log.Panic(err)
	}
	return n
}

// WriteString is io.WriteString(w, s) with panics in place of errors
func WriteString(w io.Writer, s string) int {
	n, err := io.WriteString(w, s)
	if err != nil {
		log.Panic(err)
	}
	return n
}
