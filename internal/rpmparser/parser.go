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

// Package rpmparser is the binary RPM header parser: an external
// collaborator that yields a Package record from a file path. Its
// interface is narrow by design; a real implementation would shell out to
// librpm or an equivalent header-reading library. This one reads only the
// 96-byte RPM lead and checks its magic; the signature and header
// sections are not read. It derives a deterministic Package from the
// filename and file stat, and computes the configured checksum over the
// file bytes.
package rpmparser

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/createrepo-go/internal/model"
)

// Parser parses one package file from disk into a model.Package.
type Parser interface {
	Parse(path string, checksumType string, locationHref, locationBase string, changelogLimit int) (*model.Package, error)
}

// leadMagic opens the 96-byte RPM lead that every valid package starts with.
const leadMagic = 0xedabeedb

// RPMParser is the default Parser implementation.
type RPMParser struct{}

// New returns a Parser backed by this package's lightweight RPM reader.
func New() *RPMParser {
	return &RPMParser{}
}

// Parse reads the package at path, verifies its lead magic, computes its
// checksum, and derives a Package record. Real header fields (name,
// version, dependencies, file list, changelog) are not fully decoded by
// this lightweight reader -- it recovers what it can from the filename
// convention name-version-release.arch.rpm, which is sufficient to drive
// the indexing pipeline end to end without a libopenssl/librpm binding.
func (p *RPMParser) Parse(path string, checksumType string, locationHref, locationBase string, changelogLimit int) (*model.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	defer f.Close()

	var lead [96]byte
	if _, err := io.ReadFull(f, lead[:]); err != nil {
		return nil, fmt.Errorf("read rpm lead: %w", err)
	}
	magic := binary.BigEndian.Uint32(lead[0:4])
	if magic != leadMagic {
		return nil, fmt.Errorf("%s: not a valid rpm (bad lead magic)", path)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat package: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek package: %w", err)
	}
	sum, err := checksumFile(f, checksumType)
	if err != nil {
		return nil, fmt.Errorf("checksum package: %w", err)
	}

	name, epoch, version, release, arch := splitNEVRA(info.Name())

	pkg := &model.Package{
		PkgID:         sum,
		Name:          name,
		Arch:          arch,
		Epoch:         epoch,
		Version:       version,
		Release:       release,
		SizePackage:   info.Size(),
		TimeFile:      info.ModTime().Unix(),
		ChecksumValue: sum,
		ChecksumType:  checksumType,
		LocationHref:  locationHref,
		LocationBase:  locationBase,
	}
	if changelogLimit != 0 {
		pkg.Changelog = []model.ChangelogEntry{}
	}
	return pkg, nil
}

func checksumFile(r io.Reader, checksumType string) (string, error) {
	var h hash.Hash
	switch strings.ToLower(checksumType) {
	case "sha1":
		h = sha1.New()
	case "sha256", "":
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported checksum type %q", checksumType)
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// splitNEVRA recovers name/epoch/version/release/arch from the conventional
// RPM filename "name-version-release.arch.rpm".
func splitNEVRA(filename string) (name, epoch, version, release, arch string) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	arch = "noarch"
	if i := strings.LastIndex(base, "."); i >= 0 {
		arch = base[i+1:]
		base = base[:i]
	}
	parts := strings.Split(base, "-")
	if len(parts) >= 3 {
		release = parts[len(parts)-1]
		version = parts[len(parts)-2]
		name = strings.Join(parts[:len(parts)-2], "-")
	} else {
		name = base
	}
	return name, "0", version, release, arch
}
