package display

import (
	"fmt"
	"io"

	"github.com/backmassage/pixshift/internal/term"
)

const banner = `       _          _     _  __ _
 _ __ (_)_  _____| |__ (_)/ _| |_
| '_ \| \ \/ / __| '_ \| | |_| __|
| |_) | |>  <\__ \ | | | |  _| |_
| .__/|_/_/\_\___/_| |_|_|_|  \__|
|_|
`

// PrintBanner writes the ASCII art banner and subtitle to w, in the accent
// color when colors are enabled.
func PrintBanner(w io.Writer, subtitle string) {
	fmt.Fprint(w, term.Paint(term.Accent, banner))
	if subtitle != "" {
		fmt.Fprintln(w, term.Paint(term.Muted, subtitle))
	}
	fmt.Fprintln(w)
}
