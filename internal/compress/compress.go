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

// Package compress is the compression wrapper offering open/write/close
// over gzip/bzip2/xz. It wraps github.com/klauspost/compress, also
// pulled in transitively by standardbeagle-lci and vjache-cie, for its
// faster gzip and native zstd implementations. Pure Go has no bzip2
// *writer* (only a decompressor in the standard library), so Algorithm
// "bzip2" downgrades
// to gzip with a logged warning rather than failing the run.
package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Algorithm names a compression codec for the XML/DB streams.
type Algorithm string

const (
	Gzip  Algorithm = "gzip"
	Zstd  Algorithm = "zstd"
	Bzip2 Algorithm = "bzip2" // downgraded to Gzip; bzip2 write is unavailable in pure Go
	XZ    Algorithm = "xz"    // downgraded to Zstd; no pure-Go xz encoder in the pack's dependency set
)

// Writer is an open/write/close compressed sink.
type Writer interface {
	io.WriteCloser
}

// Resolve normalizes an operator-requested algorithm to one this package
// can actually produce, returning the effective algorithm and whether it
// was downgraded from the request.
func Resolve(requested Algorithm) (effective Algorithm, downgraded bool) {
	switch requested {
	case Bzip2:
		return Gzip, true
	case XZ:
		return Zstd, true
	case Gzip, Zstd, "":
		if requested == "" {
			return Gzip, false
		}
		return requested, false
	default:
		return Gzip, true
	}
}

// Extension returns the conventional file suffix for algo.
func Extension(algo Algorithm) string {
	switch algo {
	case Zstd:
		return ".zst"
	default:
		return ".gz"
	}
}

// NewWriter opens a compressed writer over w using algo.
func NewWriter(w io.Writer, algo Algorithm) (Writer, error) {
	switch algo {
	case Gzip, "":
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", algo)
	}
}

// NewReader opens a decompressing reader over r using algo. Used by the
// repomd pass to recompute uncompressed-content checksums and sizes.
func NewReader(r io.Reader, algo Algorithm) (io.ReadCloser, error) {
	switch algo {
	case Gzip, "":
		return gzip.NewReader(r)
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", algo)
	}
}
