// Copyright 2025 Cuemby
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package xmlwriter opens the three compressed XML output streams,
// writes their declaration + root-open header before the worker pool
// starts, and writes the root-close footer after the pool drains. It
// composes internal/compress's Writer interface with a plain os.File to
// give each stream an open/write/close lifecycle.
package xmlwriter

import (
	"fmt"
	"os"

	"github.com/cuemby/createrepo-go/internal/compress"
	"github.com/cuemby/createrepo-go/internal/mdconst"
)

// RootSpec describes one stream's XML root element.
type RootSpec struct {
	FileName  string
	RootTag   string
	Xmlns     string
	ExtraAttr string // e.g. `xmlns:rpm="..."` for primary.xml
}

var (
	PrimarySpec = RootSpec{FileName: mdconst.PrimaryXMLFile, RootTag: "metadata", Xmlns: mdconst.CommonNS, ExtraAttr: `xmlns:rpm="` + mdconst.RPMNS + `"`}
	FilelistsSpec = RootSpec{FileName: mdconst.FilelistsXMLFile, RootTag: "filelists", Xmlns: mdconst.FilelistsNS}
	OtherSpec     = RootSpec{FileName: mdconst.OtherXMLFile, RootTag: "otherdata", Xmlns: mdconst.OtherNS}
)

// Stream is one open compressed XML sink: a file on disk wrapped in a
// compress.Writer, with the root header already written.
type Stream struct {
	file *os.File
	w    compress.Writer
	spec RootSpec
}

// Open creates stagingDir/spec.FileName, opens a compress.Writer of algo
// over it, and writes the XML declaration plus the root-open tag with
// packages="count". The header is written by the main thread before
// workers start, so count must already be final -- it is never revised
// after the fact.
func Open(stagingDir string, spec RootSpec, algo compress.Algorithm, count int) (*Stream, error) {
	path := stagingDir + "/" + spec.FileName
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w, err := compress.NewWriter(f, algo)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open compressed writer for %s: %w", path, err)
	}

	s := &Stream{file: f, w: w, spec: spec}
	header := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>`+"\n"+`<%s xmlns="%s"`, spec.RootTag, spec.Xmlns)
	if spec.ExtraAttr != "" {
		header += " " + spec.ExtraAttr
	}
	header += fmt.Sprintf(` packages="%d">`+"\n", count)
	if _, err := s.w.Write([]byte(header)); err != nil {
		s.Close()
		return nil, fmt.Errorf("write header for %s: %w", path, err)
	}
	return s, nil
}

// Write appends one already-rendered package fragment. Safe to call
// concurrently only when the caller serializes access (the workerpool
// WriterSet's per-stream mutex does this).
func (s *Stream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Close writes the root-close footer and closes the compressed writer and
// underlying file, in that order.
func (s *Stream) Close() error {
	if _, err := s.w.Write([]byte(fmt.Sprintf("</%s>\n", s.spec.RootTag))); err != nil {
		s.w.Close()
		s.file.Close()
		return err
	}
	if err := s.w.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Path returns the file-system path of this stream's output file.
func (s *Stream) Path() string { return s.file.Name() }
