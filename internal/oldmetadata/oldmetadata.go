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

// Package oldmetadata is the existing-metadata loader that reads an old
// repodata/ into a lookup table. It parses a previously emitted
// primary.xml.gz well enough to reconstruct the Package records the
// cache needs (name/arch/version/release, size, mtime, checksum,
// location) keyed by filename -- the subset of fields the per-package
// pipeline's cache-hit test and rendering path require.
package oldmetadata

import (
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/cuemby/createrepo-go/internal/mdconst"
	"github.com/cuemby/createrepo-go/internal/model"
)

// MetadataLoader loads a prior repodata/ directory into a filename-keyed
// lookup table.
type MetadataLoader interface {
	Load(repodataDir string) (map[string]*model.Package, error)
}

// XMLLoader is the default MetadataLoader, reading primary.xml.gz.
type XMLLoader struct{}

// New returns the default MetadataLoader.
func New() *XMLLoader { return &XMLLoader{} }

type primaryDoc struct {
	XMLName  xml.Name         `xml:"metadata"`
	Packages []primaryPkgItem `xml:"package"`
}

type primaryPkgItem struct {
	Name    string `xml:"name"`
	Arch    string `xml:"arch"`
	Version struct {
		Epoch string `xml:"epoch,attr"`
		Ver   string `xml:"ver,attr"`
		Rel   string `xml:"rel,attr"`
	} `xml:"version"`
	Checksum struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"checksum"`
	Time struct {
		File int64 `xml:"file,attr"`
	} `xml:"time"`
	Size struct {
		Package int64 `xml:"package,attr"`
	} `xml:"size"`
	Location struct {
		Href string `xml:"href,attr"`
	} `xml:"location"`
}

// Load reads repodataDir/primary.xml.gz, if present, and returns its
// packages keyed by filename (the basename of each package's
// location href). A missing directory or file is not an error -- it
// simply yields no entries, since any of the up to three merged sources
// may be absent.
func (l *XMLLoader) Load(repodataDir string) (map[string]*model.Package, error) {
	entries := make(map[string]*model.Package)

	f, err := os.Open(filepath.Join(repodataDir, mdconst.PrimaryXMLFile))
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open old primary.xml.gz: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("ungzip old primary.xml.gz: %w", err)
	}
	defer gz.Close()

	var doc primaryDoc
	if err := xml.NewDecoder(gz).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse old primary.xml.gz: %w", err)
	}

	for _, item := range doc.Packages {
		filename := path.Base(item.Location.Href)
		entries[filename] = &model.Package{
			Name:          item.Name,
			Arch:          item.Arch,
			Epoch:         item.Version.Epoch,
			Version:       item.Version.Ver,
			Release:       item.Version.Rel,
			SizePackage:   item.Size.Package,
			TimeFile:      item.Time.File,
			ChecksumValue: item.Checksum.Value,
			ChecksumType:  item.Checksum.Type,
			LocationHref:  item.Location.Href,
			FromCache:     true,
		}
	}
	return entries, nil
}
