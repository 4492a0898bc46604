// ABOUTME: Glyphs for the TUI with a Nerd Font set and a plain Unicode fallback
// ABOUTME: The set is chosen once per process from the terminal environment

package icons

import (
	"os"
	"strings"
	"sync"
)

// EnvNerdFonts forces the glyph set: "1"/"true" for Nerd Fonts, anything else for Unicode
const EnvNerdFonts = "QUICKPOLL_NERD_FONTS"

// nerdFontTerminals usually ship with a patched font configured
var nerdFontTerminals = []string{"iterm", "alacritty", "wezterm", "kitty", "ghostty"}

var (
	nerdOnce sync.Once
	nerd     bool
)

// Detect reports whether the environment read through getenv supports Nerd Font glyphs
func Detect(getenv func(string) string) bool {
	if v := getenv(EnvNerdFonts); v != "" {
		return v == "1" || strings.EqualFold(v, "true")
	}
	if getenv("NERD_FONTS") == "1" {
		return true
	}
	terminal := strings.ToLower(getenv("TERM_PROGRAM") + " " + getenv("TERM"))
	for _, name := range nerdFontTerminals {
		if strings.Contains(terminal, name) {
			return true
		}
	}
	return false
}

// HasNerdFonts caches Detect against the process environment
func HasNerdFonts() bool {
	nerdOnce.Do(func() { nerd = Detect(os.Getenv) })
	return nerd
}

// Icon pairs a Nerd Font glyph with its fallback
type Icon struct {
	NerdFont string
	Fallback string
}

func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	App      = Icon{"󰐬", "◈"}
	Poll     = Icon{"󰐬", "▤"}
	Vote     = Icon{"󰗡", "☑"}
	Like     = Icon{"", "♥"}
	Trending = Icon{"󰈸", "↗"}
	User     = Icon{"", "☺"}
	Share    = Icon{"", "⇪"}
	Server   = Icon{"󰒋", "▣"}
	Lock     = Icon{"", "⚿"}
	Search   = Icon{"", "⌕"}

	// status
	CheckOK  = Icon{"", "✓"}
	Warning  = Icon{"", "⚠"}
	Critical = Icon{"", "✗"}
	Info     = Icon{"", "ℹ"}
)
