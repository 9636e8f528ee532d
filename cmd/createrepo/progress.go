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

package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines if and how the discovery spinner and the
// worker-pool progress bar should be displayed.
type ProgressConfig struct {
	// Enabled is false under --quiet, --json, or when stderr isn't a TTY.
	Enabled bool

	// Writer is where the bar is drawn, always os.Stderr so it never
	// interleaves with piped stdout output.
	Writer io.Writer

	NoColor bool
}

// NewProgressConfig derives a ProgressConfig from the resolved CLI flags
// and TTY detection.
func NewProgressConfig(quiet, jsonOutput, noColor bool) ProgressConfig {
	enabled := !quiet && !jsonOutput && isatty.IsTerminal(os.Stderr.Fd())
	return ProgressConfig{
		Enabled: enabled,
		Writer:  os.Stderr,
		NoColor: noColor,
	}
}

// NewPackageBar returns a progress bar tracking packages written during
// the worker-pool phase, or nil when progress display is disabled --
// callers must accept a nil *progressbar.ProgressBar as a no-op sink.
func NewPackageBar(cfg ProgressConfig, total int64) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("indexing packages"),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// NewDiscoverySpinner returns an indeterminate spinner for the discovery
// and cache-load phases, where the final package count isn't known yet.
func NewDiscoverySpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}
