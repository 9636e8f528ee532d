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

// Package pipeline implements the per-package pipeline: decide cache-hit,
// parse, render, and dispatch to the three writers. Grounded on the stage
// sequencing in pkg/ingestion/local_pipeline.go's LocalPipeline.Run
// (parse -> resolve -> embed -> write), narrowed here to a single-package
// decision tree.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/cuemby/createrepo-go/internal/cache"
	"github.com/cuemby/createrepo-go/internal/ferrors"
	"github.com/cuemby/createrepo-go/internal/fragment"
	"github.com/cuemby/createrepo-go/internal/metrics"
	"github.com/cuemby/createrepo-go/internal/model"
	"github.com/cuemby/createrepo-go/internal/reposqlite"
	"github.com/cuemby/createrepo-go/internal/rpmparser"
	"github.com/cuemby/createrepo-go/internal/workerpool"
)

// Config configures one pipeline instance.
type Config struct {
	UpdateMode     bool
	StatSkip       bool
	ChecksumType   string
	ChangelogLimit int
	LocationBase   string

	Parser   rpmparser.Parser
	Renderer fragment.Renderer
	Cache    *cache.Index
	Writers  *workerpool.WriterSet

	// CacheHits, if set, is incremented once per package actually
	// reused from the cache this run. metrics.Default.CacheHits is
	// process-wide and never resets between runs, so the indexer's
	// per-run summary counts through this field instead.
	CacheHits *atomic.Int64

	Logger *slog.Logger
}

// Process implements workerpool.ProcessFunc for one Task: resolve (stat,
// cache lookup, parse fallback), render, and dispatch, in that order.
func Process(cfg Config) func(ctx context.Context, task model.Task) error {
	metrics.Init() // metrics.Default's fields are nil until Init runs
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, task model.Task) error {
		pkg, usable, abandonErr := resolvePackage(cfg, logger, task)
		if abandonErr != nil {
			return nil // per-package faults are recoverable: log, omit, continue
		}
		if pkg == nil {
			return nil
		}

		pkg.LocationHref = locationHref(task)
		pkg.LocationBase = cfg.LocationBase

		if usable {
			metrics.Default.CacheHits.Inc()
			if cfg.CacheHits != nil {
				cfg.CacheHits.Add(1)
			}
		} else {
			metrics.Default.CacheMisses.Inc()
		}

		start := time.Now()
		primary, filelists, other, err := cfg.Renderer.Render(pkg)
		if err != nil {
			logger.Warn("pipeline.render.failed", "file", task.Filename, "err", err)
			return nil
		}

		if err := dispatch(cfg.Writers, pkg, primary, filelists, other); err != nil {
			return ferrors.NewWriter("failed to write package to output streams", task.Filename, err)
		}
		metrics.Default.WriteDuration.Observe(time.Since(start).Seconds())
		metrics.Default.PackagesWritten.Inc()
		return nil
	}
}

// resolvePackage performs the stat, cache lookup, and fall-through parse
// steps of the pipeline. It returns (nil, false, err) when the task must
// be abandoned.
func resolvePackage(cfg Config, logger *slog.Logger, task model.Task) (pkg *model.Package, usable bool, abandonErr error) {
	entry, hasEntry := cfg.Cache.Lookup(task.Filename)

	if cfg.UpdateMode && hasEntry {
		if cfg.StatSkip {
			return entry, true, nil
		}
		info, err := os.Stat(task.FullPath)
		if err != nil {
			metrics.Default.StatFailures.Inc()
			logger.Warn("pipeline.stat.failed", "file", task.Filename, "err", err)
			return nil, false, err
		}
		if cache.Usable(entry, false, info.ModTime().Unix(), info.Size(), cfg.ChecksumType) {
			return entry, true, nil
		}
	}

	start := time.Now()
	fresh, err := cfg.Parser.Parse(task.FullPath, cfg.ChecksumType, locationHref(task), cfg.LocationBase, cfg.ChangelogLimit)
	metrics.Default.ParseDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Default.ParseFailures.Inc()
		logger.Warn("pipeline.parse.failed", "file", task.Filename, "err", err)
		return nil, false, err
	}
	return fresh, false, nil
}

func locationHref(task model.Task) string {
	if task.Path == "" {
		return task.Filename
	}
	return task.Path + "/" + task.Filename
}

func dispatch(ws *workerpool.WriterSet, pkg *model.Package, primary, filelists, other []byte) error {
	if err := ws.WriteFragment(workerpool.StreamPrimary, primary, func(ins reposqlite.Inserter) error {
		return ins.InsertPackage(pkg)
	}); err != nil {
		return fmt.Errorf("primary stream: %w", err)
	}
	if err := ws.WriteFragment(workerpool.StreamFilelists, filelists, func(ins reposqlite.Inserter) error {
		return ins.InsertPackage(pkg)
	}); err != nil {
		return fmt.Errorf("filelists stream: %w", err)
	}
	if err := ws.WriteFragment(workerpool.StreamOther, other, func(ins reposqlite.Inserter) error {
		return ins.InsertPackage(pkg)
	}); err != nil {
		return fmt.Errorf("other stream: %w", err)
	}
	return nil
}
