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

// Package cache builds and queries the old-metadata lookup table used for
// incremental updates. It is grounded on pkg/ingestion/checkpoint.go
// (persistence of prior run state keyed for fast lookup), generalized
// from "one checkpoint file" to "merge of up to three metadata sources,
// first-binding-wins".
package cache

import (
	"fmt"
	"os/user"

	"github.com/cuemby/createrepo-go/internal/model"
	"github.com/cuemby/createrepo-go/internal/oldmetadata"
)

// Index is the read-only, filename-keyed lookup table of prior Packages.
// Once built it is safe for concurrent reads by every worker without
// locking: it is never mutated after Build returns.
type Index struct {
	byFilename map[string]*model.Package
}

// Sources lists, in priority order, the repodata/ directories to merge.
// Earlier sources win on a filename collision.
type Sources struct {
	OutputRepodataDir string
	InputRepodataDir  string
	UpdateMDPaths     []string
}

// Build loads Sources in order -- output dir, then input dir, then each
// operator-supplied update-metadata path -- merging into one table where
// the first-seen binding for a filename wins.
func Build(loader oldmetadata.MetadataLoader, sources Sources) (*Index, error) {
	idx := &Index{byFilename: make(map[string]*model.Package)}

	ordered := []string{sources.OutputRepodataDir, sources.InputRepodataDir}
	for _, p := range sources.UpdateMDPaths {
		ordered = append(ordered, expandHome(p))
	}
	for _, dir := range ordered {
		if dir == "" {
			continue
		}
		entries, err := loader.Load(dir)
		if err != nil {
			return nil, fmt.Errorf("load old metadata from %s: %w", dir, err)
		}
		for filename, pkg := range entries {
			if _, exists := idx.byFilename[filename]; exists {
				continue // first binding wins
			}
			idx.byFilename[filename] = pkg
		}
	}
	return idx, nil
}

// Lookup returns the cached Package for filename, if any.
func (idx *Index) Lookup(filename string) (*model.Package, bool) {
	if idx == nil {
		return nil, false
	}
	p, ok := idx.byFilename[filename]
	return p, ok
}

// Len reports how many entries are in the cache.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byFilename)
}

// Usable reports whether a cache entry is still valid for reuse: usable
// when either stat-skip is enabled, or the stat result matches
// (mtime == TimeFile) AND (size == SizePackage) AND (configured checksum
// algorithm == entry's checksum algorithm).
func Usable(entry *model.Package, statSkip bool, statMtime, statSize int64, configuredChecksumType string) bool {
	if statSkip {
		return true
	}
	return statMtime == entry.TimeFile &&
		statSize == entry.SizePackage &&
		configuredChecksumType == entry.ChecksumType
}

// expandHome is a small helper shared by callers resolving "~" in
// operator-supplied update-metadata paths; kept here since the cache
// package is where those paths are first consumed.
func expandHome(p string) string {
	if len(p) == 0 || p[0] != '~' {
		return p
	}
	u, err := user.Current()
	if err != nil {
		return p
	}
	return u.HomeDir + p[1:]
}
