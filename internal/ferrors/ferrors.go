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

// Package ferrors implements the run's error-handling design: a
// structured IndexError carrying what/why/how plus a Kind used for
// recovery policy, and a process exit-code contract of 0 on success, 1 on
// any fatal precondition. Grounded on internal/errors.UserError
// (Message/Cause/Fix/ExitCode/Err, colored Format(), JSON ToJSON()),
// adapted so ExitCode always collapses to 0 or 1 at the process boundary
// while Kind still distinguishes the five error categories for logging
// and --json output.
package ferrors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Kind identifies which category of failure an IndexError belongs to.
type Kind string

const (
	// KindPrecondition: input dir missing, staging already exists. Fatal,
	// exit 1 before any writes.
	KindPrecondition Kind = "precondition"

	// KindPerPackage: stat or parse failure on one package. Logged as a
	// warning; the package is omitted; the run continues. Never fatal.
	KindPerPackage Kind = "per_package"

	// KindWriter: compressed write or DB insert failure. Fatal; staging
	// retained for inspection.
	KindWriter Kind = "writer"

	// KindPublication: rename into final failed. Fatal; staging retained.
	KindPublication Kind = "publication"

	// KindSignal: SIGINT during staging. Staging removed; exit 1.
	KindSignal Kind = "signal"
)

// ExitSuccess and ExitFatal are the only two process exit codes a run
// can end with.
const (
	ExitSuccess = 0
	ExitFatal   = 1
)

// IndexError carries structured context for a failure: what happened,
// why, and (when actionable) how to resolve it.
type IndexError struct {
	Kind    Kind
	Message string
	Cause   string
	Fix     string
	Err     error
}

func (e *IndexError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *IndexError) Unwrap() error { return e.Err }

// Fatal reports whether this error must abort the run with exit 1. Only
// KindPerPackage is recoverable.
func (e *IndexError) Fatal() bool {
	return e.Kind != KindPerPackage
}

func New(kind Kind, message, cause, fix string, err error) *IndexError {
	return &IndexError{Kind: kind, Message: message, Cause: cause, Fix: fix, Err: err}
}

func NewPrecondition(message, cause, fix string, err error) *IndexError {
	return New(KindPrecondition, message, cause, fix, err)
}

func NewPerPackage(message, cause string, err error) *IndexError {
	return New(KindPerPackage, message, cause, "", err)
}

func NewWriter(message, cause string, err error) *IndexError {
	return New(KindWriter, message, cause, "", err)
}

func NewPublication(message, cause, fix string, err error) *IndexError {
	return New(KindPublication, message, cause, fix, err)
}

func NewSignal(message string) *IndexError {
	return New(KindSignal, message, "", "", nil)
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders a human-readable, optionally colored report.
func (e *IndexError) Format(noColor bool) string {
	original := color.NoColor
	defer func() { color.NoColor = original }()
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")
	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// JSON is the machine-readable shape used under --json.
type JSON struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
	Cause string `json:"cause,omitempty"`
	Fix   string `json:"fix,omitempty"`
}

func (e *IndexError) ToJSON() JSON {
	return JSON{Kind: string(e.Kind), Error: e.Message, Cause: e.Cause, Fix: e.Fix}
}

// Fatalf prints err (as JSON or formatted text) and exits the process
// with ExitFatal. It never returns.
func Fatalf(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	ie, ok := err.(*IndexError)
	if !ok {
		ie = New(KindPrecondition, err.Error(), "", "", err)
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ie.ToJSON())
	} else {
		fmt.Fprint(os.Stderr, ie.Format(false))
	}
	os.Exit(ExitFatal)
}
