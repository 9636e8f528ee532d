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

// Package main implements the createrepo CLI: given a directory of .rpm
// packages, it writes a repository metadata set (primary/filelists/other
// XML plus their SQLite companions and repomd.xml) into <dir>/repodata
// or an explicit --outputdir.
//
// Usage:
//
//	createrepo [options] <directory>
//	createrepo --update [options] <directory>
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	"github.com/cuemby/createrepo-go/internal/compress"
	"github.com/cuemby/createrepo-go/internal/ferrors"
	"github.com/cuemby/createrepo-go/internal/indexer"
	"github.com/cuemby/createrepo-go/internal/mdconst"
	"github.com/cuemby/createrepo-go/internal/metrics"
	"github.com/cuemby/createrepo-go/internal/output"
	"github.com/cuemby/createrepo-go/internal/rconfig"
	"github.com/cuemby/createrepo-go/internal/repomd"
	"github.com/cuemby/createrepo-go/internal/retain"
	"github.com/cuemby/createrepo-go/internal/ui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		outputDir         = flag.StringP("outputdir", "o", "", "Output directory (default: <directory>)")
		pkglist           = flag.String("pkglist", "", "File listing package paths (relative to <directory>, one per line) to index instead of walking the tree")
		excludes          = flag.StringArrayP("excludes", "x", nil, "Glob pattern to exclude, relative to <directory> (repeatable)")
		update            = flag.Bool("update", false, "Incremental update: reuse unchanged packages from existing metadata")
		skipStat          = flag.Bool("skip-stat", false, "Skip mtime/size checks when reusing cached entries under --update")
		skipSymlinks      = flag.Bool("skip-symlinks", false, "Don't follow symlinks during discovery")
		updateMDPaths     = flag.StringArray("update-md-path", nil, "Additional existing repodata/ directory to seed the cache from (repeatable, highest priority first)")
		workers           = flag.IntP("workers", "w", 4, "Number of parallel package-processing workers")
		checksumType      = flag.StringP("checksum", "s", mdconst.DefaultChecksumType, "Checksum algorithm for packages and metadata (sha1, sha256)")
		changelogLimit    = flag.Int("changelog-limit", 10, "Maximum changelog entries retained per package (0 = unlimited)")
		groupfile         = flag.StringP("groupfile", "g", "", "Path to a comps groupfile to copy into the output and reference from repomd.xml")
		noDatabase        = flag.BoolP("no-database", "n", false, "Skip generating the SQLite companion databases")
		uniqueMDFilenames = flag.Bool("unique-md-filenames", true, "Prefix metadata filenames with their checksum")
		generalCompress   = flag.String("general-compress-type", "gzip", "Compression algorithm for all three XML streams (gzip, zstd, bzip2, xz)")
		useXZ             = flag.Bool("xz", false, "Shorthand for --general-compress-type=xz")
		locationBase      = flag.String("location-base", "", "Base URL prepended to package location hrefs")
		revision          = flag.String("revision", "", "Revision string embedded in repomd.xml (default: current time)")
		contentTags       = flag.StringArray("content-tag", nil, "Repeatable <tags><content> entry for repomd.xml")
		repoTags          = flag.StringArray("repo-tag", nil, "Repeatable <tags><repo> entry for repomd.xml")
		distroTags        = flag.StringArray("distro-tag", nil, `Repeatable <tags><distro> entry, "cpeid,text" or bare text`)
		retainOldMD       = flag.String("retain-old-md-by-age", "", `Retention window for previously published metadata, e.g. "30d", "12h"`)
		configPath        = flag.String("config", "", "Path to a YAML config file seeding flag defaults")
		metricsAddr       = flag.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
		quiet             = flag.BoolP("quiet", "q", false, "Suppress informational and progress output")
		verbose           = flag.BoolP("verbose", "v", false, "Enable debug logging")
		jsonOutput        = flag.Bool("json", false, "Report the result (or any error) as JSON on stdout/stderr")
		noColor           = flag.Bool("no-color", false, "Disable colored terminal output")
		showVersion       = flag.Bool("version", false, "Show version and exit")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `createrepo - repository metadata indexer

Usage:
  createrepo [options] <directory>

Reads every .rpm file under <directory> (or only the files listed in
--pkglist) and writes primary/filelists/other XML,
their SQLite companions, and repomd.xml into <directory>/repodata, or
--outputdir if given.

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  createrepo /srv/repo
  createrepo --update /srv/repo
  createrepo -o /srv/out --workers 16 --checksum sha256 /srv/repo
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("createrepo version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	ui.InitColors(*noColor)

	fileCfg, err := rconfig.Load(*configPath)
	if err != nil {
		ferrors.Fatalf(ferrors.NewPrecondition("failed to load config file", *configPath, "check the --config path and its YAML syntax", err), *jsonOutput)
	}
	applyFileDefaults(&fileCfg)

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(ferrors.ExitFatal)
	}
	inputDir := args[0]

	if *useXZ {
		*generalCompress = "xz"
	}

	resolvedOutput := *outputDir
	if resolvedOutput == "" {
		resolvedOutput = inputDir
	}

	var explicitFiles []string
	if *pkglist != "" {
		explicitFiles, err = readPkglist(*pkglist)
		if err != nil {
			ferrors.Fatalf(ferrors.NewPrecondition("failed to read --pkglist", *pkglist, "check the file exists and lists one relative path per line", err), *jsonOutput)
		}
	}

	distros := parseDistroTags(*distroTags)

	if _, err := retain.Parse(*retainOldMD); err != nil {
		ferrors.Fatalf(err, *jsonOutput)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	if *quiet {
		logLevel = slog.LevelWarn
	}
	var handler slog.Handler
	if *jsonOutput {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	metrics.Init()
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn("createrepo.signal", "signal", sig.String())
		cancel()
	}()

	progressCfg := NewProgressConfig(*quiet, *jsonOutput, *noColor)
	spinner := NewDiscoverySpinner(progressCfg, "discovering packages")
	var bar *progressbar.ProgressBar

	cfg := indexer.Config{
		InputDir:          inputDir,
		OutputDir:         resolvedOutput,
		ExplicitFiles:     explicitFiles,
		ExcludeGlobs:      *excludes,
		SkipSymlinks:      *skipSymlinks,
		UpdateMode:        *update,
		StatSkip:          *skipStat,
		UpdateMDPaths:     *updateMDPaths,
		Workers:           *workers,
		ChecksumType:      *checksumType,
		ChangelogLimit:    *changelogLimit,
		LocationBase:      *locationBase,
		Groupfile:         *groupfile,
		NoDatabase:        *noDatabase,
		UniqueMDFilenames: *uniqueMDFilenames,
		Algorithm:         compress.Algorithm(*generalCompress),
		Revision:          resolveRevision(*revision),
		ContentTags:       *contentTags,
		RepoTags:          *repoTags,
		DistroTags:        distros,
		Logger:            logger,
		OnDiscovered: func(count int) {
			if spinner != nil {
				_ = spinner.Finish()
			}
			bar = NewPackageBar(progressCfg, int64(count))
		},
		OnProgress: func() {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	}

	start := time.Now()
	summary, err := indexer.Run(ctx, cfg)
	if spinner != nil {
		_ = spinner.Finish() // no-op if OnDiscovered already retired it
	}
	if bar != nil {
		_ = bar.Finish()
	}
	elapsed := time.Since(start)

	if err != nil {
		ferrors.Fatalf(err, *jsonOutput)
	}

	if *jsonOutput {
		result := runResult{
			PackagesDiscovered: summary.PackagesDiscovered,
			PackagesWritten:    summary.PackagesWritten,
			CacheHits:          summary.CacheHits,
			ElapsedSeconds:     elapsed.Seconds(),
		}
		if err := output.JSON(result); err != nil {
			ferrors.Fatalf(ferrors.NewPrecondition("failed to encode result", "", "", err), true)
		}
		return
	}

	if !*quiet {
		ui.Successf("wrote metadata for %s packages (%s cache hits) in %s",
			ui.CountText(summary.PackagesWritten), ui.CountText(summary.CacheHits), elapsed.Round(time.Millisecond))
	}
}

// runResult is the --json shape reported on a successful run.
type runResult struct {
	PackagesDiscovered int     `json:"packages_discovered"`
	PackagesWritten    int     `json:"packages_written"`
	CacheHits          int     `json:"cache_hits"`
	ElapsedSeconds     float64 `json:"elapsed_seconds"`
}

// resolveRevision defaults to the current Unix timestamp, matching
// createrepo_c's repomd.xml <revision> convention when none is supplied.
func resolveRevision(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return fmt.Sprintf("%d", time.Now().Unix())
}

// readPkglist reads one relative package path per line, skipping blank
// lines and '#'-prefixed comments.
func readPkglist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, scanner.Err()
}

func parseDistroTags(raw []string) []repomd.DistroTag {
	tags := make([]repomd.DistroTag, 0, len(raw))
	for _, r := range raw {
		if idx := strings.IndexByte(r, ','); idx >= 0 {
			tags = append(tags, repomd.DistroTag{CPEID: r[:idx], Text: r[idx+1:]})
			continue
		}
		tags = append(tags, repomd.DistroTag{Text: r})
	}
	return tags
}

// applyFileDefaults overlays config-file values onto flags the operator
// didn't explicitly set on the command line. Scalar flags set on the
// command line win over file values; file values win over the flag
// package's own defaults. List values from the file (exclude,
// content_tags, repo_tags) are appended to any given on the command line.
func applyFileDefaults(f *rconfig.File) {
	apply := func(name string, set func()) {
		if flag.Lookup(name) != nil && !flag.Lookup(name).Changed {
			set()
		}
	}
	if f.Workers > 0 {
		apply("workers", func() { _ = flag.Set("workers", fmt.Sprintf("%d", f.Workers)) })
	}
	if f.Checksum != "" {
		apply("checksum", func() { _ = flag.Set("checksum", f.Checksum) })
	}
	if f.Compression != "" {
		apply("general-compress-type", func() { _ = flag.Set("general-compress-type", f.Compression) })
	}
	if f.ChangelogLimit > 0 {
		apply("changelog-limit", func() { _ = flag.Set("changelog-limit", fmt.Sprintf("%d", f.ChangelogLimit)) })
	}
	for _, e := range f.Exclude {
		_ = flag.Set("excludes", e)
	}
	if f.SkipSymlinks {
		apply("skip-symlinks", func() { _ = flag.Set("skip-symlinks", "true") })
	}
	if f.SkipStat {
		apply("skip-stat", func() { _ = flag.Set("skip-stat", "true") })
	}
	if f.NoDatabase {
		apply("no-database", func() { _ = flag.Set("no-database", "true") })
	}
	if f.Groupfile != "" {
		apply("groupfile", func() { _ = flag.Set("groupfile", f.Groupfile) })
	}
	if f.RetainOldMDByAge != "" {
		apply("retain-old-md-by-age", func() { _ = flag.Set("retain-old-md-by-age", f.RetainOldMDByAge) })
	}
	for _, t := range f.ContentTags {
		_ = flag.Set("content-tag", t)
	}
	for _, t := range f.RepoTags {
		_ = flag.Set("repo-tag", t)
	}
}
