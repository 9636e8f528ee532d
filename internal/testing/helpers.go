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

// Package testing provides shared fixture builders for the rest of the
// module's _test.go files: writing a minimal-but-valid RPM lead to disk
// so internal/rpmparser accepts it, and laying out a small package tree
// for internal/discovery and internal/indexer tests to walk.
package testing

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const rpmLeadMagic = 0xedabeedb

// WriteFakePackage writes a minimal file at dir/name that internal/rpmparser
// accepts as a valid RPM: a 96-byte lead with the correct magic, followed
// by a body derived from name so distinct packages checksum differently.
// name should follow the NEVRA filename convention, e.g.
// "bash-5.2-1.x86_64.rpm".
func WriteFakePackage(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	var lead [96]byte
	binary.BigEndian.PutUint32(lead[0:4], rpmLeadMagic)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fake package %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.Write(lead[:]); err != nil {
		t.Fatalf("write fake package lead %s: %v", path, err)
	}
	if _, err := f.WriteString("body:" + name); err != nil {
		t.Fatalf("write fake package body %s: %v", path, err)
	}
	return path
}

// BuildSampleRepo creates a temp directory containing n fake packages
// named pkgN-1.0-1.x86_64.rpm and returns its path.
func BuildSampleRepo(t *testing.T, n int) string {
	t.Helper()

	dir := t.TempDir()
	for i := 0; i < n; i++ {
		WriteFakePackage(t, dir, fmt.Sprintf("pkg%d-1.0-1.x86_64.rpm", i))
	}
	return dir
}
