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

// Package model defines the core data types shared across the repodata
// indexing pipeline: Task, Package, the three XML fragments, and the
// RepomdRecord emitted for every artifact in the final manifest.
package model

// Task describes one package file discovered by the walker, queued for
// exactly one worker to process.
type Task struct {
	// FullPath is the absolute path to the package file on disk.
	FullPath string

	// Filename is the basename of FullPath, e.g. "bash-5.2-1.x86_64.rpm".
	Filename string

	// Path is the directory containing FullPath, relative to the input root.
	Path string
}

// Dependency is one requires/provides/conflicts/obsoletes entry.
type Dependency struct {
	Name    string
	Flags   string
	Epoch   string
	Version string
	Release string
	Pre     bool
}

// PackageFile is one entry in a package's file list.
type PackageFile struct {
	Path string
	Type string // "" for a regular file, "dir", or "ghost"
}

// ChangelogEntry is one changelog record, newest first.
type ChangelogEntry struct {
	Author  string
	Date    int64
	Changelog string
}

// Package is the parsed metadata of one package file. It is owned either
// by the parser (a freshly parsed Package) or by the cache (a reused
// Package loaded from prior metadata) -- never both. Workers must only
// mutate LocationHref and LocationBase, and must only free Packages they
// parsed themselves.
type Package struct {
	PkgID   string
	Name    string
	Arch    string
	Epoch   string
	Version string
	Release string

	SizePackage   int64
	TimeFile      int64
	ChecksumValue string
	ChecksumType  string

	Summary     string
	Description string
	URL         string
	License     string
	Packager    string
	SourceRPM   string

	Requires  []Dependency
	Provides  []Dependency
	Conflicts []Dependency
	Obsoletes []Dependency
	Files     []PackageFile
	Changelog []ChangelogEntry

	// LocationHref is the package's path relative to the repository root,
	// without a leading slash. Set by the indexer just before rendering.
	LocationHref string

	// LocationBase is an optional absolute URL prefix for LocationHref.
	LocationBase string

	// FromCache is true when this Package was loaded from prior metadata
	// rather than freshly parsed. Cache-owned Packages are never freed by
	// workers; they are released only when the cache itself is destroyed.
	FromCache bool
}

// XmlFragments is the transient triple of rendered text blobs for one
// Package, produced by the renderer and consumed by the three writers.
type XmlFragments struct {
	Primary   []byte
	Filelists []byte
	Other     []byte
}

// RepomdRecord describes one artifact emitted under repodata/ for the
// final manifest.
type RepomdRecord struct {
	Type string // "primary", "filelists", "other", "primary_db", ...

	// Location is the path relative to the repository root, e.g.
	// "repodata/primary.xml.gz".
	Location string

	// Checksum is the hex digest of the file as stored on disk.
	Checksum string

	// ChecksumType names the algorithm used for Checksum and OpenChecksum.
	ChecksumType string

	// OpenChecksum is the hex digest of the uncompressed contents.
	// Empty for artifacts that aren't compressed (e.g. a plain groupfile
	// that was never gzip'd).
	OpenChecksum string

	// Size is the byte size of the file as stored on disk.
	Size int64

	// OpenSize is the byte size of the uncompressed contents. Zero when
	// OpenChecksum is empty.
	OpenSize int64

	// Timestamp is the file's mtime, unix seconds.
	Timestamp int64
}
