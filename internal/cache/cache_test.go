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

package cache

import (
	"testing"

	"github.com/cuemby/createrepo-go/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	byDir map[string]map[string]*model.Package
}

func (f *fakeLoader) Load(dir string) (map[string]*model.Package, error) {
	if entries, ok := f.byDir[dir]; ok {
		return entries, nil
	}
	return map[string]*model.Package{}, nil
}

func TestBuildMergesSourcesFirstBindingWins(t *testing.T) {
	loader := &fakeLoader{byDir: map[string]map[string]*model.Package{
		"/out/repodata": {"bash-5.2-1.x86_64.rpm": {Name: "bash", Version: "5.2"}},
		"/in/repodata":  {"bash-5.2-1.x86_64.rpm": {Name: "bash", Version: "5.1"}, "zlib-1.3-1.x86_64.rpm": {Name: "zlib"}},
	}}

	idx, err := Build(loader, Sources{OutputRepodataDir: "/out/repodata", InputRepodataDir: "/in/repodata"})
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())

	bash, ok := idx.Lookup("bash-5.2-1.x86_64.rpm")
	require.True(t, ok)
	require.Equal(t, "5.2", bash.Version) // output dir took priority over input dir

	zlib, ok := idx.Lookup("zlib-1.3-1.x86_64.rpm")
	require.True(t, ok)
	require.Equal(t, "zlib", zlib.Name)
}

func TestBuildSkipsEmptySources(t *testing.T) {
	loader := &fakeLoader{byDir: map[string]map[string]*model.Package{}}
	idx, err := Build(loader, Sources{})
	require.NoError(t, err)
	require.Equal(t, 0, idx.Len())
}

func TestBuildMergesUpdateMDPathsAfterPrimarySources(t *testing.T) {
	loader := &fakeLoader{byDir: map[string]map[string]*model.Package{
		"/extra": {"curl-8.0-1.x86_64.rpm": {Name: "curl"}},
	}}

	idx, err := Build(loader, Sources{UpdateMDPaths: []string{"/extra"}})
	require.NoError(t, err)
	curl, ok := idx.Lookup("curl-8.0-1.x86_64.rpm")
	require.True(t, ok)
	require.Equal(t, "curl", curl.Name)
}

func TestLookupMissingEntry(t *testing.T) {
	idx, err := Build(&fakeLoader{byDir: map[string]map[string]*model.Package{}}, Sources{})
	require.NoError(t, err)
	_, ok := idx.Lookup("nope.rpm")
	require.False(t, ok)
}

func TestLookupAndLenOnNilIndex(t *testing.T) {
	var idx *Index
	_, ok := idx.Lookup("anything.rpm")
	require.False(t, ok)
	require.Equal(t, 0, idx.Len())
}

func TestUsableSkipsStatWhenStatSkipTrue(t *testing.T) {
	entry := &model.Package{TimeFile: 1, SizePackage: 1, ChecksumType: "sha256"}
	require.True(t, Usable(entry, true, 999, 999, "md5"))
}

func TestUsableRequiresExactMatch(t *testing.T) {
	entry := &model.Package{TimeFile: 100, SizePackage: 200, ChecksumType: "sha256"}
	require.True(t, Usable(entry, false, 100, 200, "sha256"))
	require.False(t, Usable(entry, false, 101, 200, "sha256"))
	require.False(t, Usable(entry, false, 100, 201, "sha256"))
	require.False(t, Usable(entry, false, 100, 200, "sha1"))
}
