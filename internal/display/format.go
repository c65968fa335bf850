package display

import (
	"fmt"
)

var sizeUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// FormatBytes returns a human-readable IEC size, e.g. "512 B" or "1.5 MiB".
func FormatBytes(bytes int64) string {
	if bytes < 1024 && bytes > -1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	v := float64(bytes) / 1024
	unit := 0
	for (v >= 1024 || v <= -1024) && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}

// FormatBytesWithSign prefixes a size delta with + or - (e.g. "- 1.2 MiB").
func FormatBytesWithSign(bytes int64) string {
	switch {
	case bytes > 0:
		return "+ " + FormatBytes(bytes)
	case bytes < 0:
		return "- " + FormatBytes(-bytes)
	}
	return FormatBytes(0)
}

// FormatMegapixels returns a short megapixel label (e.g. "12.3 MP").
func FormatMegapixels(mp float64) string {
	if mp < 0.1 && mp > 0 {
		return fmt.Sprintf("%.2f MP", mp)
	}
	return fmt.Sprintf("%.1f MP", mp)
}

// FormatDimensions returns "WxH".
func FormatDimensions(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
