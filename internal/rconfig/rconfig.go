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

// Package rconfig loads an optional YAML config file that seeds CLI flag
// defaults, the way cmd/cie's LoadConfig(configPath) feeds project.yaml
// into cmd/cie's flag parsing. Scalar flags passed on the command line
// take precedence over file values; list values from the file are added
// to those given on the command line.
package rconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the optional on-disk shape of a repository's createrepo
// config file, conventionally named .createrepo.yaml in the input
// directory.
type File struct {
	Workers           int      `yaml:"workers"`
	Checksum          string   `yaml:"checksum"`
	Compression       string   `yaml:"compression"`
	ChangelogLimit    int      `yaml:"changelog_limit"`
	Exclude           []string `yaml:"exclude"`
	SkipSymlinks      bool     `yaml:"skip_symlinks"`
	SkipStat          bool     `yaml:"skip_stat"`
	NoDatabase        bool     `yaml:"no_database"`
	UniqueMDFilenames bool     `yaml:"unique_md_filenames"`
	Groupfile         string   `yaml:"groupfile"`
	RetainOldMDByAge  string   `yaml:"retain_old_md_by_age"`
	ContentTags       []string `yaml:"content_tags"`
	RepoTags          []string `yaml:"repo_tags"`
}

// Load reads path as YAML into a File. A missing file is not an error --
// it returns the zero File, meaning "no overrides requested".
func Load(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return File{}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}
