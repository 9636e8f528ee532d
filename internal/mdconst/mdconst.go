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

// Package mdconst holds the fixed namespace URIs, file names, and root
// element names defined by the repository metadata format.
package mdconst

const (
	CommonNS    = "http://linux.duke.edu/metadata/common"
	RPMNS       = "http://linux.duke.edu/metadata/rpm"
	FilelistsNS = "http://linux.duke.edu/metadata/filelists"
	OtherNS     = "http://linux.duke.edu/metadata/other"
	RepoNS      = "http://linux.duke.edu/metadata/repo"
)

const (
	PrimaryXMLFile   = "primary.xml.gz"
	FilelistsXMLFile = "filelists.xml.gz"
	OtherXMLFile     = "other.xml.gz"

	PrimaryDBFile   = "primary.sqlite"
	FilelistsDBFile = "filelists.sqlite"
	OtherDBFile     = "other.sqlite"

	RepomdFile = "repomd.xml"

	RepodataDirName       = "repodata"
	StagingDirName        = ".repodata"
)

// RecordType enumerates the <data type="..."> values repomd.xml can carry.
const (
	RecordPrimary     = "primary"
	RecordFilelists   = "filelists"
	RecordOther       = "other"
	RecordPrimaryDB   = "primary_db"
	RecordFilelistsDB = "filelists_db"
	RecordOtherDB     = "other_db"
	RecordGroup       = "group"
	RecordGroupGZ     = "group_gz"
)

// DefaultChecksumType is used when the operator does not specify one.
// Historically sha1; modern createrepo_c-alikes default to sha256.
const DefaultChecksumType = "sha256"
