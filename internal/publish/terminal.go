package publish

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// EnvStyle overrides the terminal markdown style (dark, light or notty).
const EnvStyle = "QUIBO_MD_STYLE"

var (
	renderersMu sync.Mutex
	// Keyed by style and wrap width. Building a renderer is slow.
	renderers = map[string]*glamour.TermRenderer{}
)

// TerminalStyle picks a glamour style without querying the terminal: an
// explicit override, then NO_COLOR style detection, then COLORFGBG, else dark.
func TerminalStyle() string {
	switch s := strings.ToLower(strings.TrimSpace(os.Getenv(EnvStyle))); s {
	case styles.DarkStyle, styles.LightStyle, styles.NoTTYStyle:
		return s
	}
	if termenv.EnvColorProfile() == termenv.Ascii {
		return styles.NoTTYStyle
	}
	// COLORFGBG is "fg;bg"; xterm palette entries 7-15 are light.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			if bg >= 7 {
				return styles.LightStyle
			}
			return styles.DarkStyle
		}
	}
	return styles.DarkStyle
}

// Terminal renders markdown for display in a terminal of the given width.
// On renderer failure the markdown is returned unchanged.
func Terminal(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	style := TerminalStyle()
	key := style + ":" + strconv.Itoa(width)

	renderersMu.Lock()
	r := renderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithColorProfile(termenv.EnvColorProfile()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			renderersMu.Unlock()
			return md
		}
		renderers[key] = rr
		r = rr
	}
	renderersMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
