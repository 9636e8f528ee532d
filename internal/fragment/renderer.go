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

// Package fragment stands in for the XML fragment formatter: the external
// collaborator that "turns a Package into three text blobs". Grounded on
// the encoding/xml element-at-a-time emission style used by
// _examples/other_examples' eopkg repository indexer
// (solus-project/ferryd's emitComponents/emitGroups), which encodes one
// struct per element rather than marshaling the whole document at once --
// the same shape this package needs since each fragment is appended to an
// already-open root element by a different worker.
package fragment

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/cuemby/createrepo-go/internal/model"
)

// Renderer turns one Package into its three XML fragments.
type Renderer interface {
	Render(p *model.Package) (primary, filelists, other []byte, err error)
}

// XMLRenderer is the default Renderer.
type XMLRenderer struct{}

// New returns the default fragment Renderer.
func New() *XMLRenderer { return &XMLRenderer{} }

type primaryPackage struct {
	XMLName xml.Name `xml:"package"`
	Type    string   `xml:"type,attr"`
	Name    string   `xml:"name"`
	Arch    string   `xml:"arch"`
	Version struct {
		Epoch   string `xml:"epoch,attr"`
		Ver     string `xml:"ver,attr"`
		Rel     string `xml:"rel,attr"`
	} `xml:"version"`
	Checksum struct {
		Type  string `xml:"type,attr"`
		Pkgid string `xml:"pkgid,attr"`
		Value string `xml:",chardata"`
	} `xml:"checksum"`
	Summary     string `xml:"summary"`
	Description string `xml:"description"`
	Packager    string `xml:"packager"`
	URL         string `xml:"url"`
	Time        struct {
		File  int64 `xml:"file,attr"`
	} `xml:"time"`
	Size struct {
		Package int64 `xml:"package,attr"`
	} `xml:"size"`
	Location struct {
		Href string `xml:"href,attr"`
	} `xml:"location"`
}

type filelistsPackage struct {
	XMLName xml.Name `xml:"package"`
	Pkgid   string   `xml:"pkgid,attr"`
	Name    string   `xml:"name,attr"`
	Arch    string   `xml:"arch,attr"`
	Version struct {
		Epoch string `xml:"epoch,attr"`
		Ver   string `xml:"ver,attr"`
		Rel   string `xml:"rel,attr"`
	} `xml:"version"`
	Files []filelistsFile `xml:"file"`
}

type filelistsFile struct {
	Type string `xml:"type,attr,omitempty"`
	Path string `xml:",chardata"`
}

type otherPackage struct {
	XMLName xml.Name `xml:"package"`
	Pkgid   string   `xml:"pkgid,attr"`
	Name    string   `xml:"name,attr"`
	Arch    string   `xml:"arch,attr"`
	Version struct {
		Epoch string `xml:"epoch,attr"`
		Ver   string `xml:"ver,attr"`
		Rel   string `xml:"rel,attr"`
	} `xml:"version"`
	Changelogs []otherChangelog `xml:"changelog"`
}

type otherChangelog struct {
	Author string `xml:"author,attr"`
	Date   int64  `xml:"date,attr"`
	Text   string `xml:",chardata"`
}

// Render produces the three fragments for p. Each fragment is a
// self-contained <package>...</package> element; the caller appends it
// inside the already-open root element for that stream.
func (r *XMLRenderer) Render(p *model.Package) (primary, filelists, other []byte, err error) {
	pp := primaryPackage{Type: "rpm", Name: p.Name, Arch: p.Arch}
	pp.Version.Epoch, pp.Version.Ver, pp.Version.Rel = p.Epoch, p.Version, p.Release
	pp.Checksum.Type, pp.Checksum.Pkgid, pp.Checksum.Value = p.ChecksumType, "YES", p.ChecksumValue
	pp.Summary, pp.Description, pp.Packager, pp.URL = p.Summary, p.Description, p.Packager, p.URL
	pp.Time.File = p.TimeFile
	pp.Size.Package = p.SizePackage
	pp.Location.Href = p.LocationHref

	primary, err = marshalIndent(pp)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("render primary fragment for %s: %w", p.Name, err)
	}

	fp := filelistsPackage{Pkgid: p.ChecksumValue, Name: p.Name, Arch: p.Arch}
	fp.Version.Epoch, fp.Version.Ver, fp.Version.Rel = p.Epoch, p.Version, p.Release
	for _, pf := range p.Files {
		fp.Files = append(fp.Files, filelistsFile{Type: pf.Type, Path: pf.Path})
	}
	filelists, err = marshalIndent(fp)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("render filelists fragment for %s: %w", p.Name, err)
	}

	op := otherPackage{Pkgid: p.ChecksumValue, Name: p.Name, Arch: p.Arch}
	op.Version.Epoch, op.Version.Ver, op.Version.Rel = p.Epoch, p.Version, p.Release
	for _, c := range p.Changelog {
		op.Changelogs = append(op.Changelogs, otherChangelog{Author: c.Author, Date: c.Date, Text: c.Changelog})
	}
	other, err = marshalIndent(op)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("render other fragment for %s: %w", p.Name, err)
	}

	return primary, filelists, other, nil
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("  ", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
