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

// Package discovery walks the input directory tree (or consumes an
// explicit file list) and produces the Task stream the worker pool
// consumes. Grounded on pkg/ingestion/repo_loader.go's
// walkRepository/shouldExclude shape, with glob matching swapped from a
// hand-rolled matchesGlob to github.com/bmatcuk/doublestar/v4 (also used
// by standardbeagle-lci) for "**"-capable matching.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cuemby/createrepo-go/internal/model"
)

const packageSuffix = ".rpm"

// Options configures one discovery pass.
type Options struct {
	// InputRoot is the directory the walk starts from, or the directory
	// explicit relative paths are joined against.
	InputRoot string

	// ExplicitPaths, if non-empty, switches discovery to explicit-list
	// mode: each entry is a path relative to InputRoot.
	ExplicitPaths []string

	// ExcludeGlobs are matched against each candidate's path relative to
	// InputRoot; a match skips the file.
	ExcludeGlobs []string

	// SkipSymlinks, when true, causes symlinked regular files to be
	// skipped during the recursive walk.
	SkipSymlinks bool

	Logger *slog.Logger
}

// Result is the outcome of one discovery pass: every surviving Task and
// the total count, which must be known before the worker pool's headers
// are written.
type Result struct {
	Tasks        []model.Task
	PackageCount int
}

// Discover runs recursive-walk or explicit-list discovery per opts.
func Discover(opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var tasks []model.Task
	var err error
	if len(opts.ExplicitPaths) > 0 {
		tasks, err = discoverExplicit(opts)
	} else {
		tasks, err = discoverWalk(opts, logger)
	}
	if err != nil {
		return nil, err
	}

	// Deterministic ordering keeps single-worker runs byte-identical
	// across invocations.
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].FullPath < tasks[j].FullPath })

	return &Result{Tasks: tasks, PackageCount: len(tasks)}, nil
}

func discoverExplicit(opts Options) ([]model.Task, error) {
	var tasks []model.Task
	for _, rel := range opts.ExplicitPaths {
		full := filepath.Join(opts.InputRoot, rel)
		if shouldExclude(rel, opts.ExcludeGlobs) {
			continue
		}
		idx := strings.LastIndexByte(full, filepath.Separator)
		filename := full
		dir := ""
		if idx >= 0 {
			filename = full[idx+1:]
			dir = full[:idx]
		}
		relDir, err := filepath.Rel(opts.InputRoot, dir)
		if err != nil {
			relDir = dir
		}
		tasks = append(tasks, model.Task{FullPath: full, Filename: filename, Path: relDir})
	}
	return tasks, nil
}

func discoverWalk(opts Options, logger *slog.Logger) ([]model.Task, error) {
	var tasks []model.Task

	walkErr := filepath.WalkDir(opts.InputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("discovery.walk.unreadable", "path", path, "err", err)
			return nil // an unreadable directory is not fatal
		}

		relPath, relErr := filepath.Rel(opts.InputRoot, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path != opts.InputRoot && shouldExclude(relPath, opts.ExcludeGlobs) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), packageSuffix) {
			return nil
		}

		if opts.SkipSymlinks {
			info, err := os.Lstat(path)
			if err == nil && info.Mode()&os.ModeSymlink != 0 {
				return nil
			}
		}

		if shouldExclude(relPath, opts.ExcludeGlobs) {
			return nil
		}

		dir := filepath.Dir(relPath)
		if dir == "." {
			dir = ""
		}
		tasks = append(tasks, model.Task{FullPath: path, Filename: d.Name(), Path: dir})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", opts.InputRoot, walkErr)
	}
	return tasks, nil
}

func shouldExclude(relPath string, globs []string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, pattern := range globs {
		if matched, _ := doublestar.Match(pattern, normalized); matched {
			return true
		}
	}
	return false
}
