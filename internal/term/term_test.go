package term

import (
	"strings"
	"testing"

	"github.com/backmassage/pixshift/internal/config"
)

func TestConfigure_Never(t *testing.T) {
	Configure(config.ColorNever, config.ThemeDark)
	if Enabled() {
		t.Fatal("colors should be disabled")
	}
	if got := Paint(Error, "boom"); got != "boom" {
		t.Errorf("Paint = %q, want plain text", got)
	}
}

func TestConfigure_Always(t *testing.T) {
	defer Configure(config.ColorNever, config.ThemeLight)

	Configure(config.ColorAlways, config.ThemeLight)
	if !Enabled() {
		t.Fatal("colors should be enabled")
	}
	got := Paint(Success, "ok")
	if !strings.Contains(got, "ok") || !strings.Contains(got, "\x1b[") {
		t.Errorf("Paint = %q, want ANSI-wrapped text", got)
	}
}

func TestConfigure_UnknownThemeFallsBack(t *testing.T) {
	defer Configure(config.ColorNever, config.ThemeLight)

	Configure(config.ColorAlways, config.Theme("sepia"))
	if got := Paint(Info, "x"); !strings.Contains(got, "\x1b[") {
		t.Errorf("Paint = %q, want styled text from the light palette", got)
	}
}
