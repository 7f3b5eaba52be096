// Package format writes command results as json, edn or plain text.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formats lists the accepted --format values.
var Formats = []string{"json", "edn", "text"}

// Valid reports whether name is a supported output format.
func Valid(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json", "edn", "text":
		return true
	}
	return false
}

// Write writes v in the requested format. json is the default.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteJSON writes strict JSON. Commands wrap their result as {"data": ...}
// and put follow-up suggestions under "_hints".
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
