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

package workerpool

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cuemby/createrepo-go/internal/compress"
	"github.com/cuemby/createrepo-go/internal/model"
	"github.com/cuemby/createrepo-go/internal/reposqlite"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	buf      bytes.Buffer
	closed   bool
	closeErr error
}

func (f *fakeSink) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *fakeSink) Close() error {
	f.closed = true
	return f.closeErr
}

type fakeInserter struct {
	inserted  []*model.Package
	closed    bool
	insertErr error
}

func (f *fakeInserter) InsertPackage(p *model.Package) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, p)
	return nil
}
func (f *fakeInserter) Close() error {
	f.closed = true
	return nil
}

func newTestWriterSet(inserters [numStreams]reposqlite.Inserter) (*WriterSet, [numStreams]*fakeSink) {
	var sinks [numStreams]*fakeSink
	var xmls [numStreams]compress.Writer
	for i := range sinks {
		sinks[i] = &fakeSink{}
		xmls[i] = sinks[i]
	}
	return NewWriterSet(xmls, inserters), sinks
}

func TestWriteFragmentAppendsAndInserts(t *testing.T) {
	ins := &fakeInserter{}
	var inserters [numStreams]reposqlite.Inserter
	inserters[StreamPrimary] = ins

	ws, sinks := newTestWriterSet(inserters)

	p := &model.Package{Name: "bash"}
	err := ws.WriteFragment(StreamPrimary, []byte("<package/>"), func(i reposqlite.Inserter) error {
		return i.InsertPackage(p)
	})
	require.NoError(t, err)
	require.Equal(t, "<package/>", sinks[StreamPrimary].buf.String())
	require.Len(t, ins.inserted, 1)
	require.Same(t, p, ins.inserted[0])
}

func TestWriteFragmentNilInserterSkipsInsert(t *testing.T) {
	var inserters [numStreams]reposqlite.Inserter
	ws, sinks := newTestWriterSet(inserters)

	called := false
	err := ws.WriteFragment(StreamFilelists, []byte("<package/>"), func(i reposqlite.Inserter) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.False(t, called)
	require.Equal(t, "<package/>", sinks[StreamFilelists].buf.String())
}

func TestWriteFragmentPropagatesInsertError(t *testing.T) {
	ins := &fakeInserter{insertErr: errors.New("constraint failed")}
	var inserters [numStreams]reposqlite.Inserter
	inserters[StreamOther] = ins
	ws, _ := newTestWriterSet(inserters)

	err := ws.WriteFragment(StreamOther, []byte("<package/>"), func(i reposqlite.Inserter) error {
		return i.InsertPackage(&model.Package{})
	})
	require.Error(t, err)
}

func TestCloseAllClosesEverythingAndReturnsFirstError(t *testing.T) {
	ins := &fakeInserter{}
	var inserters [numStreams]reposqlite.Inserter
	inserters[StreamPrimary] = ins
	inserters[StreamFilelists] = &fakeInserter{}
	inserters[StreamOther] = &fakeInserter{}

	ws, sinks := newTestWriterSet(inserters)
	sinks[StreamPrimary].closeErr = errors.New("flush failed")

	err := ws.CloseAll()
	require.Error(t, err)
	for _, s := range sinks {
		require.True(t, s.closed)
	}
	require.True(t, ins.closed)
}
