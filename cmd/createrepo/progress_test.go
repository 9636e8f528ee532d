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
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProgressConfig(t *testing.T) {
	tests := []struct {
		name            string
		quiet           bool
		jsonOutput      bool
		noColor         bool
		expectedNoColor bool
	}{
		{name: "default flags - disabled in test (stderr isn't a TTY)"},
		{name: "quiet disables progress", quiet: true},
		{name: "json disables progress", jsonOutput: true},
		{name: "noColor propagates regardless of TTY", noColor: true, expectedNoColor: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewProgressConfig(tt.quiet, tt.jsonOutput, tt.noColor)
			require.False(t, cfg.Enabled, "stderr is never a TTY under go test")
			require.Equal(t, tt.expectedNoColor, cfg.NoColor)
			require.Equal(t, os.Stderr, cfg.Writer)
		})
	}
}

func TestNewPackageBar(t *testing.T) {
	t.Run("disabled config returns nil", func(t *testing.T) {
		bar := NewPackageBar(ProgressConfig{Enabled: false}, 100)
		require.Nil(t, bar)
	})

	t.Run("enabled config returns a usable bar", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewPackageBar(ProgressConfig{Enabled: true, Writer: &buf}, 100)
		require.NotNil(t, bar)
		require.NoError(t, bar.Add(50))
		require.NoError(t, bar.Finish())
	})

	t.Run("zero total creates a valid bar", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewPackageBar(ProgressConfig{Enabled: true, Writer: &buf}, 0)
		require.NotNil(t, bar)
		require.NoError(t, bar.Finish())
	})

	t.Run("noColor is respected without error", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewPackageBar(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}, 10)
		require.NotNil(t, bar)
		require.NoError(t, bar.Add(5))
		require.NoError(t, bar.Finish())
	})
}

func TestNewDiscoverySpinner(t *testing.T) {
	t.Run("disabled config returns nil", func(t *testing.T) {
		spinner := NewDiscoverySpinner(ProgressConfig{Enabled: false}, "discovering packages")
		require.Nil(t, spinner)
	})

	t.Run("enabled config returns a usable spinner", func(t *testing.T) {
		var buf bytes.Buffer
		spinner := NewDiscoverySpinner(ProgressConfig{Enabled: true, Writer: &buf}, "discovering packages")
		require.NotNil(t, spinner)
		require.NoError(t, spinner.Add(1))
		require.NoError(t, spinner.Finish())
	})

	t.Run("noColor is respected without error", func(t *testing.T) {
		var buf bytes.Buffer
		spinner := NewDiscoverySpinner(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}, "discovering packages")
		require.NotNil(t, spinner)
		require.NoError(t, spinner.Finish())
	})
}
