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

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/cuemby/createrepo-go/internal/cache"
	"github.com/cuemby/createrepo-go/internal/compress"
	"github.com/cuemby/createrepo-go/internal/model"
	"github.com/cuemby/createrepo-go/internal/reposqlite"
	"github.com/cuemby/createrepo-go/internal/workerpool"
	"github.com/stretchr/testify/require"
)

type fakeParser struct {
	pkg       *model.Package
	err       error
	callCount int
}

func (f *fakeParser) Parse(path, checksumType, locationHref, locationBase string, changelogLimit int) (*model.Package, error) {
	f.callCount++
	if f.err != nil {
		return nil, f.err
	}
	pkg := *f.pkg
	return &pkg, nil
}

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(p *model.Package) (primary, filelists, other []byte, err error) {
	if f.err != nil {
		return nil, nil, nil, f.err
	}
	return []byte("primary:" + p.Name), []byte("filelists:" + p.Name), []byte("other:" + p.Name), nil
}

type fakeSink struct{ bytes.Buffer }

func (f *fakeSink) Close() error { return nil }

type fakeInserter struct{ inserted int }

func (f *fakeInserter) InsertPackage(p *model.Package) error { f.inserted++; return nil }
func (f *fakeInserter) Close() error                         { return nil }

func newWriters() (*workerpool.WriterSet, *fakeSink) {
	primary := &fakeSink{}
	ws := workerpool.NewWriterSet(
		[3]compress.Writer{primary, &fakeSink{}, &fakeSink{}},
		[3]reposqlite.Inserter{&fakeInserter{}, &fakeInserter{}, &fakeInserter{}},
	)
	return ws, primary
}

func emptyCache(t *testing.T) *cache.Index {
	t.Helper()
	idx, err := cache.Build(noopLoader{}, cache.Sources{})
	require.NoError(t, err)
	return idx
}

type noopLoader struct{}

func (noopLoader) Load(dir string) (map[string]*model.Package, error) {
	return map[string]*model.Package{}, nil
}

func TestProcessFreshParseAndDispatch(t *testing.T) {
	ws, primary := newWriters()
	parser := &fakeParser{pkg: &model.Package{Name: "bash", Version: "5.2"}}

	fn := Process(Config{
		ChecksumType: "sha256",
		Parser:       parser,
		Renderer:     &fakeRenderer{},
		Cache:        emptyCache(t),
		Writers:      ws,
	})

	err := fn(context.Background(), model.Task{FullPath: "/pkgs/bash.rpm", Filename: "bash-5.2-1.x86_64.rpm"})
	require.NoError(t, err)
	require.Equal(t, 1, parser.callCount)
	require.Contains(t, primary.String(), "primary:bash")
}

func TestProcessParseFailureIsRecoverable(t *testing.T) {
	ws, _ := newWriters()
	parser := &fakeParser{err: errors.New("bad header")}

	fn := Process(Config{
		ChecksumType: "sha256",
		Parser:       parser,
		Renderer:     &fakeRenderer{},
		Cache:        emptyCache(t),
		Writers:      ws,
	})

	err := fn(context.Background(), model.Task{FullPath: "/pkgs/bad.rpm", Filename: "bad.rpm"})
	require.NoError(t, err) // per-package faults don't abort the pool
}

func TestProcessRenderFailureIsRecoverable(t *testing.T) {
	ws, _ := newWriters()
	parser := &fakeParser{pkg: &model.Package{Name: "bash"}}

	fn := Process(Config{
		ChecksumType: "sha256",
		Parser:       parser,
		Renderer:     &fakeRenderer{err: errors.New("encode failed")},
		Cache:        emptyCache(t),
		Writers:      ws,
	})

	err := fn(context.Background(), model.Task{FullPath: "/pkgs/bash.rpm", Filename: "bash.rpm"})
	require.NoError(t, err)
}

func TestLocationHrefJoinsPathAndFilename(t *testing.T) {
	require.Equal(t, "bash.rpm", locationHref(model.Task{Filename: "bash.rpm"}))
	require.Equal(t, "Packages/b/bash.rpm", locationHref(model.Task{Path: "Packages/b", Filename: "bash.rpm"}))
}

func TestProcessUpdateModeCacheHitSkipsParse(t *testing.T) {
	ws, _ := newWriters()
	loader := mapLoader{"out": {"bash.rpm": {Name: "bash", Version: "5.1", TimeFile: 100, SizePackage: 10, ChecksumType: "sha256"}}}
	idx, err := cache.Build(loader, cache.Sources{OutputRepodataDir: "out"})
	require.NoError(t, err)

	parser := &fakeParser{pkg: &model.Package{Name: "bash", Version: "5.2"}}
	var hits atomic.Int64

	fn := Process(Config{
		UpdateMode:   true,
		StatSkip:     true,
		ChecksumType: "sha256",
		Parser:       parser,
		Renderer:     &fakeRenderer{},
		Cache:        idx,
		Writers:      ws,
		CacheHits:    &hits,
	})

	err = fn(context.Background(), model.Task{FullPath: "/anywhere/bash.rpm", Filename: "bash.rpm"})
	require.NoError(t, err)
	require.Equal(t, 0, parser.callCount) // stat-skip reuses the cache entry without stat or reparse
	require.Equal(t, int64(1), hits.Load())
}

func TestProcessCacheMissLeavesCacheHitsCounterAtZero(t *testing.T) {
	ws, _ := newWriters()
	parser := &fakeParser{pkg: &model.Package{Name: "bash", Version: "5.2"}}
	var hits atomic.Int64

	fn := Process(Config{
		ChecksumType: "sha256",
		Parser:       parser,
		Renderer:     &fakeRenderer{},
		Cache:        emptyCache(t),
		Writers:      ws,
		CacheHits:    &hits,
	})

	err := fn(context.Background(), model.Task{FullPath: "/pkgs/bash.rpm", Filename: "bash-5.2-1.x86_64.rpm"})
	require.NoError(t, err)
	require.Equal(t, int64(0), hits.Load())
}

type mapLoader map[string]map[string]*model.Package

func (m mapLoader) Load(dir string) (map[string]*model.Package, error) {
	if entries, ok := m[dir]; ok {
		return entries, nil
	}
	return map[string]*model.Package{}, nil
}
