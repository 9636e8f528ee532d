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

// Package reposqlite is the relational-database driver offering
// prepared-statement inserts for the companion primary.sqlite,
// filelists.sqlite and other.sqlite snapshots. It is
// grounded on pkg/storage/backend.go and pkg/storage/embedded.go's shape
// (a narrow Backend-like interface wrapping a mutex-guarded handle with an
// idempotent EnsureSchema), adapted from CozoDB's Datalog mutations to
// modernc.org/sqlite prepared statements -- the pack ships no SQL driver
// directly, so this is the one dependency pulled in fresh from the
// ecosystem (see DESIGN.md).
package reposqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cuemby/createrepo-go/internal/model"
)

// Kind identifies which of the three schemas a DB instance uses.
type Kind int

const (
	Primary Kind = iota
	Filelists
	Other
)

// Inserter is the per-stream prepared-statement handle a worker uses to
// write one package's row(s) under the stream's writer-set mutex.
type Inserter interface {
	InsertPackage(p *model.Package) error
	Close() error
}

// DB wraps one of the three SQLite snapshots.
type DB struct {
	kind Kind
	conn *sql.DB
	path string

	insertPackage *sql.Stmt
	insertFile    *sql.Stmt
	insertChange  *sql.Stmt
}

// Open creates the SQLite file at path if it does not exist and installs
// the schema for kind. An existing file is not truncated: its tables and
// rows are kept, and each Open appends one more db_info row.
func Open(path string, kind Kind) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1) // one writer per stream, guarded by the caller's mutex

	db := &DB{kind: kind, conn: conn, path: path}
	if err := db.ensureSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := db.prepare(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS db_info (dbversion INTEGER, checksum TEXT)`,
		`INSERT INTO db_info (dbversion, checksum) VALUES (10, '')`,
	}
	switch d.kind {
	case Primary:
		stmts = append(stmts,
			`CREATE TABLE IF NOT EXISTS packages (
				pkgKey INTEGER PRIMARY KEY,
				pkgId TEXT, name TEXT, arch TEXT, version TEXT, epoch TEXT, release TEXT,
				summary TEXT, description TEXT, url TEXT, time_file INTEGER,
				size_package INTEGER, location_href TEXT, checksum_type TEXT
			)`,
		)
	case Filelists:
		stmts = append(stmts,
			`CREATE TABLE IF NOT EXISTS packages (pkgKey INTEGER PRIMARY KEY, pkgId TEXT, name TEXT, arch TEXT, version TEXT, epoch TEXT, release TEXT)`,
			`CREATE TABLE IF NOT EXISTS filelist (pkgKey INTEGER, dirname TEXT, filenames TEXT, filetypes TEXT)`,
		)
	case Other:
		stmts = append(stmts,
			`CREATE TABLE IF NOT EXISTS packages (pkgKey INTEGER PRIMARY KEY, pkgId TEXT, name TEXT, arch TEXT, version TEXT, epoch TEXT, release TEXT)`,
			`CREATE TABLE IF NOT EXISTS changelog (pkgKey INTEGER, author TEXT, date INTEGER, changelog TEXT)`,
		)
	}
	for _, s := range stmts {
		if _, err := d.conn.Exec(s); err != nil {
			return fmt.Errorf("ensure schema (%s): %w", s, err)
		}
	}
	return nil
}

func (d *DB) prepare() error {
	var err error
	switch d.kind {
	case Primary:
		d.insertPackage, err = d.conn.Prepare(`INSERT INTO packages
			(pkgId, name, arch, version, epoch, release, summary, description, url, time_file, size_package, location_href, checksum_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	case Filelists:
		d.insertPackage, err = d.conn.Prepare(`INSERT INTO packages (pkgId, name, arch, version, epoch, release) VALUES (?, ?, ?, ?, ?, ?)`)
		if err == nil {
			d.insertFile, err = d.conn.Prepare(`INSERT INTO filelist (pkgKey, dirname, filenames, filetypes) VALUES (?, ?, ?, ?)`)
		}
	case Other:
		d.insertPackage, err = d.conn.Prepare(`INSERT INTO packages (pkgId, name, arch, version, epoch, release) VALUES (?, ?, ?, ?, ?, ?)`)
		if err == nil {
			d.insertChange, err = d.conn.Prepare(`INSERT INTO changelog (pkgKey, author, date, changelog) VALUES (?, ?, ?, ?)`)
		}
	}
	return err
}

// InsertPackage writes p's row(s) into this stream's tables. Called
// exactly once per package, under the writer-set mutex for this stream.
func (d *DB) InsertPackage(p *model.Package) error {
	switch d.kind {
	case Primary:
		_, err := d.insertPackage.Exec(p.PkgID, p.Name, p.Arch, p.Version, p.Epoch, p.Release,
			p.Summary, p.Description, p.URL, p.TimeFile, p.SizePackage, p.LocationHref, p.ChecksumType)
		return err
	case Filelists:
		res, err := d.insertPackage.Exec(p.PkgID, p.Name, p.Arch, p.Version, p.Epoch, p.Release)
		if err != nil {
			return err
		}
		pkgKey, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, f := range p.Files {
			if _, err := d.insertFile.Exec(pkgKey, "", f.Path, f.Type); err != nil {
				return err
			}
		}
		return nil
	case Other:
		res, err := d.insertPackage.Exec(p.PkgID, p.Name, p.Arch, p.Version, p.Epoch, p.Release)
		if err != nil {
			return err
		}
		pkgKey, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, c := range p.Changelog {
			if _, err := d.insertChange.Exec(pkgKey, c.Author, c.Date, c.Changelog); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown db kind %d", d.kind)
}

// SetChecksum writes the companion XML file's checksum into db_info, per
// the two-pass checksum protocol: the database must embed the checksum of
// the XML stream it describes before it is compressed.
func (d *DB) SetChecksum(checksum string) error {
	_, err := d.conn.Exec(`UPDATE db_info SET checksum = ?`, checksum)
	return err
}

// Path returns the on-disk path of the underlying SQLite file.
func (d *DB) Path() string { return d.path }

// Close releases the prepared statements and the underlying connection.
func (d *DB) Close() error {
	for _, stmt := range []*sql.Stmt{d.insertPackage, d.insertFile, d.insertChange} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return d.conn.Close()
}
