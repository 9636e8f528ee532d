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

// Package publish implements the staging-directory / atomic-rename
// protocol that makes a run's output appear to consumers as either the
// previous complete snapshot or the new one, never a partial one.
// Grounded on cmd/cie/index.go's signal-handling shape (os/signal.Notify
// into a channel, a goroutine that reacts and cancels), adapted here so
// the handler's job is removing a staging directory rather than
// cancelling a context.
package publish

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/cuemby/createrepo-go/internal/ferrors"
)

// stagingPath is the process-wide pointer to the currently-live staging
// directory, consulted only by the signal handler. It is nil whenever no
// staging directory is owned by this process.
var stagingPath atomic.Pointer[string]

// Session owns one run's staging directory and the signal handler
// guarding it.
type Session struct {
	finalDir   string
	stagingDir string
	logger     *slog.Logger

	sigCh  chan os.Signal
	doneCh chan struct{}
}

// Begin resolves final = outputDir/repodata and staging = outputDir/.repodata,
// creates staging exclusively, and installs the termination signal
// handler. A pre-existing staging directory means a concurrent run and is
// reported as a precondition fault.
func Begin(outputDir string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	final := filepath.Join(outputDir, "repodata")
	staging := filepath.Join(outputDir, ".repodata")

	if err := os.Mkdir(staging, 0o755); err != nil {
		if os.IsExist(err) {
			return nil, ferrors.NewPrecondition(
				"staging directory already exists",
				staging,
				"remove the staging directory if no other run is in progress, or wait for it to finish",
				err,
			)
		}
		return nil, ferrors.NewPrecondition("cannot create staging directory", staging, "check permissions on the output directory", err)
	}

	s := &Session{
		finalDir:   final,
		stagingDir: staging,
		logger:     logger,
		sigCh:      make(chan os.Signal, 1),
		doneCh:     make(chan struct{}),
	}
	stagingPath.Store(&staging)

	signal.Notify(s.sigCh, os.Interrupt, syscall.SIGTERM)
	go s.handleSignals()

	return s, nil
}

func (s *Session) handleSignals() {
	select {
	case sig := <-s.sigCh:
		s.logger.Warn("publish.signal.received", "signal", sig.String())
		if p := stagingPath.Load(); p != nil {
			if err := os.RemoveAll(*p); err != nil {
				s.logger.Error("publish.signal.cleanup_failed", "path", *p, "err", err)
			} else {
				s.logger.Info("publish.signal.cleanup_done", "path", *p)
			}
		}
		os.Exit(ferrors.ExitFatal)
	case <-s.doneCh:
		return
	}
}

// StagingDir returns the path workers should write their output into.
func (s *Session) StagingDir() string { return s.stagingDir }

// FinalDir returns the path consumers read the published snapshot from.
func (s *Session) FinalDir() string { return s.finalDir }

// CopyGroupfile copies src into the staging directory under its original
// basename, when a groupfile was supplied.
func (s *Session) CopyGroupfile(src string) error {
	if src == "" {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return ferrors.NewPrecondition("cannot open groupfile", src, "check the --groupfile path", err)
	}
	defer in.Close()

	dst := filepath.Join(s.stagingDir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return ferrors.NewWriter("cannot create groupfile copy in staging", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return ferrors.NewWriter("cannot copy groupfile into staging", dst, err)
	}
	return nil
}

// Swap performs the publication swap: if final exists, every file in it
// is moved into staging (preserving artifacts this run did not
// regenerate) and final is removed, then staging is renamed to final.
// This single rename is the atomic publication step.
func (s *Session) Swap() error {
	if _, err := os.Stat(s.finalDir); err == nil {
		entries, err := os.ReadDir(s.finalDir)
		if err != nil {
			return ferrors.NewPublication("cannot read final directory for preservation pass", s.finalDir, "staging left in place for inspection", err)
		}
		for _, entry := range entries {
			from := filepath.Join(s.finalDir, entry.Name())
			to := filepath.Join(s.stagingDir, entry.Name())
			if _, err := os.Stat(to); err == nil {
				continue // this run already regenerated this artifact
			}
			if err := os.Rename(from, to); err != nil {
				return ferrors.NewPublication(fmt.Sprintf("cannot preserve %s from final", entry.Name()), from, "staging left in place for inspection", err)
			}
		}
		if err := os.RemoveAll(s.finalDir); err != nil {
			return ferrors.NewPublication("cannot remove old final directory", s.finalDir, "staging left in place for inspection", err)
		}
	} else if !os.IsNotExist(err) {
		return ferrors.NewPublication("cannot stat final directory", s.finalDir, "staging left in place for inspection", err)
	}

	if err := os.Rename(s.stagingDir, s.finalDir); err != nil {
		return ferrors.NewPublication("atomic rename of staging to final failed", s.stagingDir, "staging left in place for inspection", err)
	}
	return nil
}

// End uninstalls the signal handler and clears the process-wide staging
// pointer. Call after Swap succeeds, or after a failed run has already
// cleaned up staging itself.
func (s *Session) End() {
	signal.Stop(s.sigCh)
	close(s.doneCh)
	stagingPath.Store(nil)
}

// Abort removes the staging directory after a failed run and tears down
// the signal handler. Safe to call even if staging was already removed.
func (s *Session) Abort() error {
	defer s.End()
	if err := os.RemoveAll(s.stagingDir); err != nil {
		return fmt.Errorf("remove staging directory %s: %w", s.stagingDir, err)
	}
	return nil
}
