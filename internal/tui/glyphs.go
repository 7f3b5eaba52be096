package tui

import (
	"os"
	"strings"
	"sync"
)

// Some terminal fonts render the Unicode affordances poorly; QUIBO_TUI_GLYPHS=ascii
// switches to plain ASCII.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("QUIBO_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func pick(unicode, ascii string) string {
	if glyphs() == glyphSetASCII {
		return ascii
	}
	return unicode
}

func glyphStepDone() string    { return pick("✓", "x") }
func glyphStepCurrent() string { return pick("●", "*") }
func glyphStepFuture() string  { return pick("○", "o") }
func glyphBullet() string      { return pick("•", "*") }
func glyphArrow() string       { return pick("→", "->") }
func glyphHRule() string       { return pick("─", "-") }
func glyphDrag() string        { return pick("↕", "~") }
