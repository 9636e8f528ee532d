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

// Package statemachine defines the strict phase sequence a run advances
// through and the rule for when a failure must remove the staging
// directory.
package statemachine

// Phase is one step of the run, executed strictly in order by the main
// thread.
type Phase int

const (
	Init Phase = iota
	StageCreated
	CacheLoaded
	WritersOpen
	HeadersWritten
	PoolRunning
	PoolDrained
	FootersWritten
	WritersClosed
	Swapped
	RepomdWritten
	Done
)

func (p Phase) String() string {
	switch p {
	case Init:
		return "INIT"
	case StageCreated:
		return "STAGE_CREATED"
	case CacheLoaded:
		return "CACHE_LOADED"
	case WritersOpen:
		return "WRITERS_OPEN"
	case HeadersWritten:
		return "HEADERS_WRITTEN"
	case PoolRunning:
		return "POOL_RUNNING"
	case PoolDrained:
		return "POOL_DRAINED"
	case FootersWritten:
		return "FOOTERS_WRITTEN"
	case WritersClosed:
		return "WRITERS_CLOSED"
	case Swapped:
		return "SWAPPED"
	case RepomdWritten:
		return "REPOMD_WRITTEN"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// RequiresStagingCleanup reports whether a failure at phase p must remove
// the staging directory: true for every phase from StageCreated onward,
// false before it, since nothing has touched the filesystem yet.
func (p Phase) RequiresStagingCleanup() bool {
	return p >= StageCreated
}
