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

// Package ui provides color output helpers for the createrepo CLI.
// InitColors sets the color switch from the --no-color flag, which
// replaces fatih/color's own NO_COLOR and TTY detection.
//
// Color usage guidelines:
//   - Red: Errors, failures
//   - Yellow: Warnings, cautions
//   - Green: Success, completions
//   - Cyan: Info, neutral messages
//   - Bold: Headers, important labels
//   - Dim: Less important details, paths
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors configures global color output based on the --no-color flag.
// It sets fatih/color's NoColor switch directly, so InitColors(false)
// enables colors even when NO_COLOR is set or output is not a TTY.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints a green success message with a checkmark prefix.
func Success(msg string) {
	_, _ = Green.Println("✓ " + msg)
}

func Successf(format string, args ...any) {
	_, _ = Green.Printf("✓ "+format+"\n", args...)
}

// Warning prints a yellow warning message with a warning symbol prefix.
func Warning(msg string) {
	_, _ = Yellow.Println("⚠ " + msg)
}

func Warningf(format string, args ...any) {
	_, _ = Yellow.Printf("⚠ "+format+"\n", args...)
}

// Error prints a red error message with an X prefix.
func Error(msg string) {
	_, _ = Red.Println("✗ " + msg)
}

func Errorf(format string, args ...any) {
	_, _ = Red.Printf("✗ "+format+"\n", args...)
}

// Info prints a cyan informational message with an info symbol prefix.
func Info(msg string) {
	_, _ = Cyan.Println("ℹ " + msg)
}

func Infof(format string, args ...any) {
	_, _ = Cyan.Printf("ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline separator.
func Header(text string) {
	_, _ = Bold.Println(text)
	fmt.Println(strings.Repeat("=", len(text)))
}

// SubHeader prints a bold sub-header without an underline.
func SubHeader(text string) {
	_, _ = Bold.Println(text)
}

// Label returns a bold-formatted label string for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for less important text, e.g. paths.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan-formatted count value for statistics display.
func CountText(count int) string {
	return Cyan.Sprint(count)
}
