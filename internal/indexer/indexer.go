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

// Package indexer wires discovery, cache, the worker pool, the output
// writers, publication, and repomd assembly into one run, advancing
// through internal/statemachine's phases in order. Grounded on
// cmd/cie/index.go's top-level run shape (build config, open resources,
// run the pool, report a summary), generalized from one pipeline kind to
// the six-phase staging/publish/repomd sequence this domain needs.
package indexer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/cuemby/createrepo-go/internal/cache"
	"github.com/cuemby/createrepo-go/internal/compress"
	"github.com/cuemby/createrepo-go/internal/discovery"
	"github.com/cuemby/createrepo-go/internal/ferrors"
	"github.com/cuemby/createrepo-go/internal/fragment"
	"github.com/cuemby/createrepo-go/internal/mdconst"
	"github.com/cuemby/createrepo-go/internal/metrics"
	"github.com/cuemby/createrepo-go/internal/oldmetadata"
	"github.com/cuemby/createrepo-go/internal/pipeline"
	"github.com/cuemby/createrepo-go/internal/publish"
	"github.com/cuemby/createrepo-go/internal/repomd"
	"github.com/cuemby/createrepo-go/internal/reposqlite"
	"github.com/cuemby/createrepo-go/internal/rpmparser"
	"github.com/cuemby/createrepo-go/internal/statemachine"
	"github.com/cuemby/createrepo-go/internal/workerpool"
	"github.com/cuemby/createrepo-go/internal/xmlwriter"
)

// Config is the fully-resolved set of options for one run, already
// defaulted and validated by the CLI layer.
type Config struct {
	InputDir      string
	OutputDir     string
	ExplicitFiles []string
	ExcludeGlobs  []string
	SkipSymlinks  bool

	UpdateMode    bool
	StatSkip      bool
	UpdateMDPaths []string

	Workers        int
	ChecksumType   string
	ChangelogLimit int
	LocationBase   string
	Groupfile      string

	NoDatabase        bool
	UniqueMDFilenames bool
	Algorithm         compress.Algorithm

	Revision    string
	ContentTags []string
	RepoTags    []string
	DistroTags  []repomd.DistroTag

	Logger *slog.Logger

	// OnDiscovered, if set, is called once discovery finishes with the
	// final package count, before the worker pool starts -- letting the
	// CLI layer retire a discovery spinner and size a determinate
	// progress bar for the pool phase.
	OnDiscovered func(count int)

	// OnProgress, if set, is called once per package after it's written
	// (or dropped with a recoverable per-package warning), letting the
	// CLI layer drive a progress bar without indexer depending on one.
	OnProgress func()
}

// Summary reports the outcome of a successful run.
type Summary struct {
	PackagesDiscovered int
	PackagesWritten    int
	CacheHits          int
}

// Run executes one complete indexing pass: discovery, cache build,
// writer setup, worker-pool fan-out, publication swap, and repomd
// assembly, in that strict order.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics.Init() // metrics.Default's fields are nil until Init runs
	phase := statemachine.Init

	fail := func(err error) (Summary, error) {
		if phase.RequiresStagingCleanup() {
			logger.Warn("indexer.failure.cleanup", "phase", phase.String())
		}
		return Summary{}, err
	}

	if _, err := os.Stat(cfg.InputDir); err != nil {
		return fail(ferrors.NewPrecondition("input directory not found", cfg.InputDir, "check the <directory> argument", err))
	}

	algo, downgraded := compress.Resolve(cfg.Algorithm)
	if downgraded {
		logger.Warn("indexer.compression.downgraded", "requested", cfg.Algorithm, "effective", algo)
	}

	sess, err := publish.Begin(cfg.OutputDir, logger)
	if err != nil {
		return fail(err)
	}
	phase = statemachine.StageCreated

	summary, err := run(ctx, cfg, algo, sess, logger, &phase)
	if err != nil {
		if abortErr := sess.Abort(); abortErr != nil {
			logger.Error("indexer.abort.failed", "err", abortErr)
		}
		return fail(err)
	}
	return summary, nil
}

func run(ctx context.Context, cfg Config, algo compress.Algorithm, sess *publish.Session, logger *slog.Logger, phase *statemachine.Phase) (Summary, error) {
	if cfg.Groupfile != "" {
		if err := sess.CopyGroupfile(cfg.Groupfile); err != nil {
			return Summary{}, err
		}
	}

	discResult, err := discovery.Discover(discovery.Options{
		InputRoot:     cfg.InputDir,
		ExplicitPaths: cfg.ExplicitFiles,
		ExcludeGlobs:  cfg.ExcludeGlobs,
		SkipSymlinks:  cfg.SkipSymlinks,
		Logger:        logger,
	})
	if err != nil {
		return Summary{}, ferrors.NewPrecondition("discovery failed", cfg.InputDir, "check input directory permissions", err)
	}
	metrics.Default.TasksDiscovered.Add(float64(discResult.PackageCount))
	if cfg.OnDiscovered != nil {
		cfg.OnDiscovered(discResult.PackageCount)
	}

	cacheIdx, err := cache.Build(oldmetadata.New(), cache.Sources{
		OutputRepodataDir: filepath.Join(cfg.OutputDir, mdconst.RepodataDirName),
		InputRepodataDir:  filepath.Join(cfg.InputDir, mdconst.RepodataDirName),
		UpdateMDPaths:     cfg.UpdateMDPaths,
	})
	if err != nil {
		return Summary{}, ferrors.NewPrecondition("loading old metadata failed", "", "check --update-md-path values", err)
	}
	*phase = statemachine.CacheLoaded

	xmls, inserters, _, err := openWriters(sess.StagingDir(), algo, discResult.PackageCount, cfg.NoDatabase)
	if err != nil {
		return Summary{}, err
	}
	*phase = statemachine.WritersOpen
	*phase = statemachine.HeadersWritten // headers are written as part of xmlwriter.Open

	writerSet := workerpool.NewWriterSet(xmls, inserters)

	var cacheHits atomic.Int64
	proc := pipeline.Process(pipeline.Config{
		UpdateMode:     cfg.UpdateMode,
		StatSkip:       cfg.StatSkip,
		ChecksumType:   cfg.ChecksumType,
		ChangelogLimit: cfg.ChangelogLimit,
		LocationBase:   cfg.LocationBase,
		Parser:         rpmparser.New(),
		Renderer:       fragment.New(),
		Cache:          cacheIdx,
		Writers:        writerSet,
		CacheHits:      &cacheHits,
		Logger:         logger,
	})

	pool := &workerpool.Pool{Workers: cfg.Workers, Process: proc, OnTaskDone: cfg.OnProgress}
	*phase = statemachine.PoolRunning
	if err := pool.Run(ctx, discResult.Tasks); err != nil {
		return Summary{}, ferrors.NewWriter("worker pool aborted", "", err)
	}
	*phase = statemachine.PoolDrained

	if err := writerSet.CloseAll(); err != nil {
		return Summary{}, ferrors.NewWriter("closing output streams failed", "", err)
	}
	*phase = statemachine.FootersWritten
	*phase = statemachine.WritersClosed

	if err := sess.Swap(); err != nil {
		return Summary{}, err
	}
	*phase = statemachine.Swapped

	if err := assembleRepomd(cfg, sess.FinalDir(), algo, inserters); err != nil {
		return Summary{}, ferrors.NewPublication("repomd assembly failed", sess.FinalDir(), "final directory was swapped in but repomd.xml may be stale or missing", err)
	}
	*phase = statemachine.RepomdWritten

	sess.End()
	*phase = statemachine.Done

	return Summary{
		PackagesDiscovered: discResult.PackageCount,
		PackagesWritten:    discResult.PackageCount,
		CacheHits:          int(cacheHits.Load()),
	}, nil
}

func openWriters(stagingDir string, algo compress.Algorithm, count int, noDatabase bool) ([3]compress.Writer, [3]reposqlite.Inserter, [3]*xmlwriter.Stream, error) {
	specs := [3]xmlwriter.RootSpec{xmlwriter.PrimarySpec, xmlwriter.FilelistsSpec, xmlwriter.OtherSpec}
	kinds := [3]reposqlite.Kind{reposqlite.Primary, reposqlite.Filelists, reposqlite.Other}
	dbFiles := [3]string{mdconst.PrimaryDBFile, mdconst.FilelistsDBFile, mdconst.OtherDBFile}

	var xmls [3]compress.Writer
	var inserters [3]reposqlite.Inserter
	var streams [3]*xmlwriter.Stream

	for i, spec := range specs {
		s, err := xmlwriter.Open(stagingDir, spec, algo, count)
		if err != nil {
			return xmls, inserters, streams, ferrors.NewWriter("failed to open output stream", spec.FileName, err)
		}
		streams[i] = s
		xmls[i] = s

		if !noDatabase {
			db, err := reposqlite.Open(filepath.Join(stagingDir, dbFiles[i]), kinds[i])
			if err != nil {
				return xmls, inserters, streams, ferrors.NewWriter("failed to open database", dbFiles[i], err)
			}
			inserters[i] = db
		}
	}
	return xmls, inserters, streams, nil
}

func assembleRepomd(cfg Config, finalDir string, algo compress.Algorithm, inserters [3]reposqlite.Inserter) error {
	artifacts := []repomd.Artifact{
		{Type: mdconst.RecordPrimary, Path: filepath.Join(finalDir, mdconst.PrimaryXMLFile), Compressed: true},
		{Type: mdconst.RecordFilelists, Path: filepath.Join(finalDir, mdconst.FilelistsXMLFile), Compressed: true},
		{Type: mdconst.RecordOther, Path: filepath.Join(finalDir, mdconst.OtherXMLFile), Compressed: true},
	}

	dbPaths := map[string]repomd.DBArtifact{}
	if !cfg.NoDatabase {
		dbPaths[mdconst.RecordPrimaryDB] = repomd.DBArtifact{Path: filepath.Join(finalDir, mdconst.PrimaryDBFile), MirrorsXMLType: mdconst.RecordPrimary}
		dbPaths[mdconst.RecordFilelistsDB] = repomd.DBArtifact{Path: filepath.Join(finalDir, mdconst.FilelistsDBFile), MirrorsXMLType: mdconst.RecordFilelists}
		dbPaths[mdconst.RecordOtherDB] = repomd.DBArtifact{Path: filepath.Join(finalDir, mdconst.OtherDBFile), MirrorsXMLType: mdconst.RecordOther}
	}

	if cfg.Groupfile != "" {
		artifacts = append(artifacts, repomd.Artifact{
			Type:       mdconst.RecordGroup,
			Path:       filepath.Join(finalDir, filepath.Base(cfg.Groupfile)),
			Compressed: false,
		})
	}

	return repomd.Build(repomd.Config{
		FinalDir:          finalDir,
		ChecksumType:      cfg.ChecksumType,
		Algorithm:         algo,
		UniqueMDFilenames: cfg.UniqueMDFilenames,
		Manifest: repomd.Manifest{
			Revision:    cfg.Revision,
			ContentTags: cfg.ContentTags,
			RepoTags:    cfg.RepoTags,
			DistroTags:  cfg.DistroTags,
		},
		DBPaths: dbPaths,
	}, artifacts)
}
