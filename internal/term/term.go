// Package term provides terminal color state and detection.
//
// Styles are package-level variables because multiple packages (logging,
// display, console) need them for output formatting. [Configure] sets them
// once during startup from the color mode and the theme; when colors are
// disabled the styles render text unchanged.
package term

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/backmassage/pixshift/internal/config"
)

// Styles for each log level and for accents. Plain when colors are disabled.
var (
	Info    = lipgloss.NewStyle()
	Success = lipgloss.NewStyle()
	Warn    = lipgloss.NewStyle()
	Error   = lipgloss.NewStyle()
	Debug   = lipgloss.NewStyle()
	Accent  = lipgloss.NewStyle()
	Muted   = lipgloss.NewStyle()
)

var (
	enabled bool
	profile = termenv.Ascii
)

// palette is one theme's ANSI-256 color set.
type palette struct {
	info, success, warn, err, debug, accent, muted string
}

var palettes = map[config.Theme]palette{
	config.ThemeLight: {info: "25", success: "28", warn: "130", err: "160", debug: "30", accent: "91", muted: "244"},
	config.ThemeDark:  {info: "75", success: "114", warn: "221", err: "203", debug: "87", accent: "213", muted: "245"},
}

// Configure resolves the color mode and builds the package-level styles for
// theme. Call once during startup (from [logging.NewLogger]).
func Configure(mode config.ColorMode, theme config.Theme) {
	enabled = resolve(mode)
	if enabled {
		profile = termenv.ANSI256
	} else {
		profile = termenv.Ascii
	}
	lipgloss.SetColorProfile(profile)

	p, ok := palettes[theme]
	if !ok {
		p = palettes[config.ThemeLight]
	}
	Info = style(p.info, true)
	Success = style(p.success, true)
	Warn = style(p.warn, true)
	Error = style(p.err, true)
	Debug = style(p.debug, false)
	Accent = style(p.accent, true)
	Muted = style(p.muted, false)
}

func style(color string, bold bool) lipgloss.Style {
	if !enabled {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(bold)
}

// Enabled reports whether colors are currently active.
func Enabled() bool { return enabled }

// Profile returns the active termenv color profile.
func Profile() termenv.Profile { return profile }

// Paint renders s with st when colors are enabled and returns s otherwise.
func Paint(st lipgloss.Style, s string) string {
	if !enabled {
		return s
	}
	return st.Render(s)
}

// resolve determines whether colors should be enabled based on the configured
// mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY (character device).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
