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

package fragment

import (
	"strings"
	"testing"

	"github.com/cuemby/createrepo-go/internal/model"
	"github.com/stretchr/testify/require"
)

func samplePackage() *model.Package {
	return &model.Package{
		Name:          "bash",
		Arch:          "x86_64",
		Epoch:         "0",
		Version:       "5.2",
		Release:       "1",
		ChecksumType:  "sha256",
		ChecksumValue: "deadbeef",
		Summary:       "The GNU Bourne Again shell",
		Description:   "Bash is the shell, or command language interpreter.",
		Packager:      "Fedora Project",
		URL:           "https://www.gnu.org/software/bash/",
		TimeFile:      1700000000,
		SizePackage:   123456,
		LocationHref:  "Packages/b/bash-5.2-1.x86_64.rpm",
		Files: []model.PackageFile{
			{Path: "/usr/bin/bash"},
			{Path: "/usr/share/doc/bash", Type: "dir"},
			{Path: "/usr/share/doc/bash/README", Type: "ghost"},
		},
		Changelog: []model.ChangelogEntry{
			{Author: "Jane Packager <jane@example.com>", Date: 1690000000, Changelog: "- rebuilt"},
		},
	}
}

func TestRenderPrimaryFragment(t *testing.T) {
	r := New()
	primary, _, _, err := r.Render(samplePackage())
	require.NoError(t, err)

	s := string(primary)
	// The encoder's two-space prefix nests the fragment under the stream's root element.
	require.True(t, strings.HasPrefix(s, "  <package"))
	require.Contains(t, s, `type="rpm"`)
	require.Contains(t, s, "<name>bash</name>")
	require.Contains(t, s, "<arch>x86_64</arch>")
	require.Contains(t, s, `epoch="0"`)
	require.Contains(t, s, `ver="5.2"`)
	require.Contains(t, s, `rel="1"`)
	require.Contains(t, s, `type="sha256"`)
	require.Contains(t, s, `pkgid="YES"`)
	require.Contains(t, s, "deadbeef")
	require.Contains(t, s, `href="Packages/b/bash-5.2-1.x86_64.rpm"`)
	require.True(t, strings.HasSuffix(s, "\n"))
}

func TestRenderFilelistsFragment(t *testing.T) {
	r := New()
	_, filelists, _, err := r.Render(samplePackage())
	require.NoError(t, err)

	s := string(filelists)
	require.Contains(t, s, `pkgid="deadbeef"`)
	require.Contains(t, s, "/usr/bin/bash")
	require.Contains(t, s, `type="dir"`)
	require.Contains(t, s, `type="ghost"`)
	// A regular file has no type attribute at all (omitempty).
	require.NotContains(t, s, `type=""`)
}

func TestRenderOtherFragment(t *testing.T) {
	r := New()
	_, _, other, err := r.Render(samplePackage())
	require.NoError(t, err)

	s := string(other)
	require.Contains(t, s, `pkgid="deadbeef"`)
	require.Contains(t, s, `author="Jane Packager &lt;jane@example.com&gt;"`)
	require.Contains(t, s, `date="1690000000"`)
	require.Contains(t, s, "- rebuilt")
}

func TestRenderEmptyFilesAndChangelog(t *testing.T) {
	p := samplePackage()
	p.Files = nil
	p.Changelog = nil

	r := New()
	_, filelists, other, err := r.Render(p)
	require.NoError(t, err)
	require.NotContains(t, string(filelists), "<file")
	require.NotContains(t, string(other), "<changelog")
}
