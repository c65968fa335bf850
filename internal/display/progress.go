package display

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/backmassage/pixshift/internal/term"
)

// ProgressBar renders a static "done/total" bar for line-oriented output.
type ProgressBar struct {
	model progress.Model
}

// NewProgressBar builds a bar of the given width using the active color
// profile.
func NewProgressBar(width int) *ProgressBar {
	if width < 10 {
		width = 10
	}
	m := progress.New(
		progress.WithWidth(width),
		progress.WithSolidFill("#5A56E0"),
		progress.WithColorProfile(term.Profile()),
		progress.WithoutPercentage(),
	)
	return &ProgressBar{model: m}
}

// Render returns the bar followed by a "done/total" counter.
func (p *ProgressBar) Render(done, total int) string {
	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total)
	}
	if pct > 1 {
		pct = 1
	}
	return fmt.Sprintf("%s %d/%d", p.model.ViewAs(pct), done, total)
}
