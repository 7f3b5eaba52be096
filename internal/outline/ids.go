package outline

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

var randRead = rand.Read

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
func newRandomID(prefix string) string {
	var b [5]byte // 40 bits -> 8 base32 chars
	if _, err := randRead(b[:]); err != nil {
		panic("outline: crypto/rand unavailable: " + err.Error())
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return prefix + "-" + strings.ToLower(enc.EncodeToString(b[:]))
}

// uniqueID draws ids until one is not taken.
func uniqueID(prefix string, taken func(string) bool) string {
	for {
		id := newRandomID(prefix)
		if !taken(id) {
			return id
		}
	}
}

// newSectionID skips ids present in d and any for which retired reports true.
func (d Document) newSectionID(retired func(string) bool) string {
	return uniqueID("sec", func(id string) bool {
		return d.sectionIndex(id) >= 0 || (retired != nil && retired(id))
	})
}

func (s Section) newSubsectionID(retired func(string) bool) string {
	return uniqueID("sub", func(id string) bool {
		return s.subsectionIndex(id) >= 0 || (retired != nil && retired(id))
	})
}
