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

// Package repomd assembles the final repomd.xml manifest: per-artifact
// checksums and sizes, the two-pass database checksum embedding, the
// unique-md-filenames rename, and an atomic manifest write. Grounded on
// eopkg's repo_index.go (the repository-index-manifest assembly shape),
// adapted from a single eopkg index document to createrepo_c's
// repomd.xml record set.
package repomd

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/createrepo-go/internal/compress"
	"github.com/cuemby/createrepo-go/internal/mdconst"
	"github.com/cuemby/createrepo-go/internal/model"
	"github.com/cuemby/createrepo-go/internal/reposqlite"
)

// Artifact is one file under finalDir that must gain a repomd record.
type Artifact struct {
	Type       string // mdconst.RecordPrimary, etc.
	Path       string // absolute path on disk, in finalDir
	Compressed bool   // whether Path's contents are compress.Algorithm-encoded
}

// DistroTag is a single <tags><distro cpeid="...">text</distro></tags> entry.
type DistroTag struct {
	CPEID string
	Text  string
}

// Manifest carries everything needed to render repomd.xml, beyond the
// per-artifact records computed by Build.
type Manifest struct {
	Revision    string
	ContentTags []string
	RepoTags    []string
	DistroTags  []DistroTag
}

// Config configures one repomd assembly pass.
type Config struct {
	FinalDir          string
	ChecksumType      string
	Algorithm         compress.Algorithm
	UniqueMDFilenames bool
	Manifest          Manifest

	// DBPaths maps a record type (mdconst.RecordPrimaryDB etc.) to the
	// uncompressed SQLite file written under FinalDir by internal/reposqlite,
	// together with the XML record type whose checksum it must embed.
	DBPaths map[string]DBArtifact
}

// DBArtifact pairs one database file with the XML record type it mirrors.
type DBArtifact struct {
	Path          string
	MirrorsXMLType string
}

// Build runs the full repomd assembly: embeds XML checksums into each
// database, compresses the databases, computes every record (renaming
// under unique_md_filenames last, against the stable path), and writes
// repomd.xml atomically. xmlArtifacts lists the already-finalized XML
// streams (and optional groupfile) in the order they should appear.
func Build(cfg Config, xmlArtifacts []Artifact) error {
	records := make([]model.RepomdRecord, 0, len(xmlArtifacts)+len(cfg.DBPaths))
	xmlChecksums := make(map[string]string, len(xmlArtifacts))

	for _, a := range xmlArtifacts {
		rec, err := computeRecord(a, cfg.ChecksumType, cfg.Algorithm)
		if err != nil {
			return fmt.Errorf("compute record for %s: %w", a.Path, err)
		}
		xmlChecksums[a.Type] = rec.Checksum
		records = append(records, rec)
	}

	for _, recordType := range []string{mdconst.RecordPrimaryDB, mdconst.RecordFilelistsDB, mdconst.RecordOtherDB} {
		db, ok := cfg.DBPaths[recordType]
		if !ok {
			continue
		}
		xmlSum, ok := xmlChecksums[db.MirrorsXMLType]
		if !ok {
			return fmt.Errorf("database %s mirrors unknown xml type %q", db.Path, db.MirrorsXMLType)
		}
		rec, err := embedAndCompressDB(recordType, db.Path, xmlSum, cfg.ChecksumType, cfg.Algorithm)
		if err != nil {
			return fmt.Errorf("database pass for %s: %w", db.Path, err)
		}
		records = append(records, rec)
	}

	if cfg.UniqueMDFilenames {
		for i := range records {
			renamed, err := renameUnique(cfg.FinalDir, records[i])
			if err != nil {
				return fmt.Errorf("rename %s: %w", records[i].Location, err)
			}
			records[i] = renamed
		}
	}

	return writeManifest(cfg.FinalDir, cfg.Manifest, records)
}

// embedAndCompressDB runs the two-pass database step: open the
// uncompressed database, write the mirrored XML stream's checksum into
// db_info, close it, compress the file, delete the uncompressed copy, and
// return the record computed against the compressed artifact.
func embedAndCompressDB(recordType, path, xmlChecksum, checksumType string, algo compress.Algorithm) (model.RepomdRecord, error) {
	db, err := reposqlite.Open(path, kindFromRecordType(recordType))
	if err != nil {
		return model.RepomdRecord{}, err
	}
	if err := db.SetChecksum(xmlChecksum); err != nil {
		db.Close()
		return model.RepomdRecord{}, err
	}
	if err := db.Close(); err != nil {
		return model.RepomdRecord{}, err
	}

	compressedPath := path + compress.Extension(algo)
	if err := compressFile(path, compressedPath, algo); err != nil {
		return model.RepomdRecord{}, err
	}
	if err := os.Remove(path); err != nil {
		return model.RepomdRecord{}, fmt.Errorf("remove uncompressed database %s: %w", path, err)
	}

	return computeRecord(Artifact{Type: recordType, Path: compressedPath, Compressed: true}, checksumType, algo)
}

func kindFromRecordType(recordType string) reposqlite.Kind {
	switch recordType {
	case mdconst.RecordFilelistsDB:
		return reposqlite.Filelists
	case mdconst.RecordOtherDB:
		return reposqlite.Other
	default:
		return reposqlite.Primary
	}
}

func compressFile(srcPath, dstPath string, algo compress.Algorithm) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	w, err := compress.NewWriter(dst, algo)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// computeRecord stats Path for size and mtime, hashes it as stored, and
// when Compressed is set, also decompresses it to measure the
// uncompressed size and checksum.
func computeRecord(a Artifact, checksumType string, algo compress.Algorithm) (model.RepomdRecord, error) {
	info, err := os.Stat(a.Path)
	if err != nil {
		return model.RepomdRecord{}, err
	}

	f, err := os.Open(a.Path)
	if err != nil {
		return model.RepomdRecord{}, err
	}
	defer f.Close()

	checksum, err := hashReader(f, checksumType)
	if err != nil {
		return model.RepomdRecord{}, err
	}

	rec := model.RepomdRecord{
		Type:         a.Type,
		Checksum:     checksum,
		ChecksumType: checksumType,
		Size:         info.Size(),
		Timestamp:    info.ModTime().Unix(),
	}
	rec.Location = relativeLocation(a.Path)

	if a.Compressed {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return model.RepomdRecord{}, err
		}
		zr, err := compress.NewReader(f, algo)
		if err != nil {
			return model.RepomdRecord{}, err
		}
		defer zr.Close()

		h := newHash(checksumType)
		n, err := io.Copy(h, zr)
		if err != nil {
			return model.RepomdRecord{}, err
		}
		rec.OpenChecksum = hex.EncodeToString(h.Sum(nil))
		rec.OpenSize = n
	}

	return rec, nil
}

// renameUnique renames the artifact at rec.Location to
// <algorithm>-<hex>-<original-name>, run after every checksum has already
// been computed against the stable path.
func renameUnique(finalDir string, rec model.RepomdRecord) (model.RepomdRecord, error) {
	base := filepath.Base(rec.Location)
	newBase := fmt.Sprintf("%s-%s-%s", rec.ChecksumType, rec.Checksum, base)

	if err := os.Rename(filepath.Join(finalDir, base), filepath.Join(finalDir, newBase)); err != nil {
		return rec, err
	}
	rec.Location = filepath.Join(filepath.Base(finalDir), newBase)
	return rec, nil
}

func relativeLocation(path string) string {
	return filepath.Join("repodata", filepath.Base(path))
}

func hashReader(r io.Reader, checksumType string) (string, error) {
	h := newHash(checksumType)
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHash(checksumType string) hash.Hash {
	switch strings.ToLower(checksumType) {
	case "sha1":
		return sha1.New()
	default:
		return sha256.New()
	}
}

// --- manifest XML rendering ---

type xmlRepomd struct {
	XMLName  xml.Name     `xml:"repomd"`
	Xmlns    string       `xml:"xmlns,attr"`
	RpmNS    string       `xml:"xmlns:rpm,attr"`
	Revision string       `xml:"revision"`
	Tags     *xmlTags     `xml:"tags,omitempty"`
	Data     []xmlDataRec `xml:"data"`
}

type xmlTags struct {
	Content []string    `xml:"content,omitempty"`
	Repo    []string    `xml:"repo,omitempty"`
	Distro  []xmlDistro `xml:"distro,omitempty"`
}

type xmlDistro struct {
	CPEID string `xml:"cpeid,attr,omitempty"`
	Text  string `xml:",chardata"`
}

type xmlDataRec struct {
	Type         string      `xml:"type,attr"`
	Checksum     xmlChecksum `xml:"checksum"`
	OpenChecksum *xmlChecksum `xml:"open-checksum,omitempty"`
	Location     xmlLocation `xml:"location"`
	Timestamp    int64       `xml:"timestamp"`
	Size         int64       `xml:"size"`
	OpenSize     int64       `xml:"open-size,omitempty"`
}

type xmlChecksum struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type xmlLocation struct {
	Href string `xml:"href,attr"`
}

func writeManifest(finalDir string, m Manifest, records []model.RepomdRecord) error {
	doc := xmlRepomd{
		Xmlns:    mdconst.RepoNS,
		RpmNS:    mdconst.RPMNS,
		Revision: m.Revision,
	}
	if len(m.ContentTags) > 0 || len(m.RepoTags) > 0 || len(m.DistroTags) > 0 {
		tags := &xmlTags{Content: m.ContentTags, Repo: m.RepoTags}
		for _, d := range m.DistroTags {
			tags.Distro = append(tags.Distro, xmlDistro{CPEID: d.CPEID, Text: d.Text})
		}
		doc.Tags = tags
	}
	for _, r := range records {
		dr := xmlDataRec{
			Type:      r.Type,
			Checksum:  xmlChecksum{Type: r.ChecksumType, Value: r.Checksum},
			Location:  xmlLocation{Href: r.Location},
			Timestamp: r.Timestamp,
			Size:      r.Size,
		}
		if r.OpenChecksum != "" {
			dr.OpenChecksum = &xmlChecksum{Type: r.ChecksumType, Value: r.OpenChecksum}
			dr.OpenSize = r.OpenSize
		}
		doc.Data = append(doc.Data, dr)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal repomd.xml: %w", err)
	}

	path := filepath.Join(finalDir, mdconst.RepomdFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(xml.Header); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		return err
	}
	if _, err := f.WriteString("\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
