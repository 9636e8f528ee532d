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

// Package retain carries the --retain-old-md-by-age policy through the
// CLI surface. The core pipeline always publishes exactly one current
// snapshot under repodata/; pruning previously-published revisions older
// than a retention window is the job of an external housekeeping pass
// this package records the configured age for, but does not itself run.
package retain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Policy is a parsed --retain-old-md-by-age value, e.g. "30d", "12h".
type Policy struct {
	Age time.Duration
	Set bool
}

// Parse accepts createrepo_c's age suffixes: d (days), h (hours), m
// (minutes), or a bare number of seconds. An empty string means no
// retention policy was requested.
func Parse(spec string) (Policy, error) {
	if spec == "" {
		return Policy{}, nil
	}
	unit := time.Second
	numeric := spec
	switch {
	case strings.HasSuffix(spec, "d"):
		unit = 24 * time.Hour
		numeric = strings.TrimSuffix(spec, "d")
	case strings.HasSuffix(spec, "h"):
		unit = time.Hour
		numeric = strings.TrimSuffix(spec, "h")
	case strings.HasSuffix(spec, "m"):
		unit = time.Minute
		numeric = strings.TrimSuffix(spec, "m")
	}
	n, err := strconv.ParseInt(numeric, 10, 64)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid --retain-old-md-by-age value %q: %w", spec, err)
	}
	return Policy{Age: time.Duration(n) * unit, Set: true}, nil
}
