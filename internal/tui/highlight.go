package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sweep is a bright band that travels across the selected title on every
// animation tick
type Sweep struct {
	pos       int
	band      int
	pause     int // ticks left before the next pass
	enabled   bool
	trueColor bool
}

const sweepPauseTicks = 6

// NewSweep creates a sweep. TOMATE_NO_ANIMATION=1 disables it.
func NewSweep() *Sweep {
	return &Sweep{
		band:      4,
		enabled:   os.Getenv("TOMATE_NO_ANIMATION") == "",
		trueColor: os.Getenv("COLORTERM") == "truecolor",
	}
}

// Enabled reports whether the sweep needs animation ticks
func (s *Sweep) Enabled() bool {
	return s != nil && s.enabled
}

// Advance moves the band one glyph along a text of length n
func (s *Sweep) Advance(n int) {
	if !s.Enabled() {
		return
	}
	if s.pause > 0 {
		s.pause--
		return
	}
	s.pos++
	if s.pos > n+s.band {
		s.pos = -s.band
		s.pause = sweepPauseTicks
	}
}

// Reset restarts the band, e.g. when the selection changes
func (s *Sweep) Reset() {
	if s != nil {
		s.pos = -s.band
		s.pause = 0
	}
}

// Render draws text with the band applied
func (s *Sweep) Render(text string) string {
	base := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	if !s.Enabled() || text == "" {
		return base.Render(text)
	}

	bright := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true)
	if !s.trueColor {
		bright = bright.Underline(true)
	}

	var b strings.Builder
	for i, r := range []rune(text) {
		if i >= s.pos-s.band/2 && i <= s.pos+s.band/2 {
			b.WriteString(bright.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}
