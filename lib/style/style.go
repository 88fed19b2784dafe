// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package style centralizes terminal color styling for catkin output.
// Colors are resolved against the detected terminal profile; the
// --force-color and --no-color interface flags override detection.
package style

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects how colors are decided.
type Mode int

const (
	// Auto uses the terminal's detected color profile: full color on
	// a capable tty, plain text when output is piped.
	Auto Mode = iota

	// Forced emits ANSI colors regardless of the output destination.
	Forced

	// Disabled never emits colors.
	Disabled
)

// Styler renders the fixed set of text roles catkin output uses.
type Styler struct {
	packageName lipgloss.Style
	stage       lipgloss.Style
	success     lipgloss.Style
	failure     lipgloss.Style
	warning     lipgloss.Style
	dim         lipgloss.Style
}

// New builds a Styler writing to w under the given mode.
func New(w io.Writer, mode Mode) *Styler {
	renderer := lipgloss.NewRenderer(w)
	switch mode {
	case Forced:
		renderer.SetColorProfile(termenv.ANSI256)
	case Disabled:
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &Styler{
		packageName: renderer.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		stage:       renderer.NewStyle().Foreground(lipgloss.Color("4")),
		success:     renderer.NewStyle().Foreground(lipgloss.Color("2")),
		failure:     renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warning:     renderer.NewStyle().Foreground(lipgloss.Color("3")),
		dim:         renderer.NewStyle().Faint(true),
	}
}

// Package styles a package name.
func (s *Styler) Package(text string) string { return s.packageName.Render(text) }

// Stage styles a job stage label.
func (s *Styler) Stage(text string) string { return s.stage.Render(text) }

// Success styles a success marker.
func (s *Styler) Success(text string) string { return s.success.Render(text) }

// Failure styles a failure marker.
func (s *Styler) Failure(text string) string { return s.failure.Render(text) }

// Warning styles a warning marker.
func (s *Styler) Warning(text string) string { return s.warning.Render(text) }

// Dim styles secondary detail text.
func (s *Styler) Dim(text string) string { return s.dim.Render(text) }
