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

package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		requested  Algorithm
		effective  Algorithm
		downgraded bool
	}{
		{"", Gzip, false},
		{Gzip, Gzip, false},
		{Zstd, Zstd, false},
		{Bzip2, Gzip, true},
		{XZ, Zstd, true},
		{"lz4", Gzip, true},
	}
	for _, c := range cases {
		eff, down := Resolve(c.requested)
		require.Equal(t, c.effective, eff, "requested=%q", c.requested)
		require.Equal(t, c.downgraded, down, "requested=%q", c.requested)
	}
}

func TestExtension(t *testing.T) {
	require.Equal(t, ".gz", Extension(Gzip))
	require.Equal(t, ".zst", Extension(Zstd))
	require.Equal(t, ".gz", Extension(Algorithm("unknown")))
}

func TestGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Gzip)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello repodata"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(&buf, Gzip)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello repodata", string(got))
}

func TestZstdRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Zstd)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello repodata"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(&buf, Zstd)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello repodata", string(got))
}

func TestNewWriterUnsupportedAlgorithm(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, Bzip2)
	require.Error(t, err)
}

func TestNewReaderUnsupportedAlgorithm(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil), XZ)
	require.Error(t, err)
}
