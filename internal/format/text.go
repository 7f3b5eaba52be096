package format

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteText writes a human-readable rendering. The {"data": ...} envelope is
// unwrapped; a bare string is printed verbatim so drafts can be piped.
func WriteText(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	var hints []any
	if m, ok := x.(map[string]any); ok {
		if d, ok := m["data"]; ok {
			hints, _ = m["_hints"].([]any)
			x = d
		}
	}

	var buf bytes.Buffer
	if s, ok := x.(string); ok {
		buf.WriteString(strings.TrimRight(s, "\n"))
		buf.WriteByte('\n')
	} else {
		writeText(&buf, x, 0)
	}
	for _, h := range hints {
		buf.WriteString("hint: ")
		buf.WriteString(scalar(h))
		buf.WriteByte('\n')
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func writeText(buf *bytes.Buffer, v any, level int) {
	pad := strings.Repeat("  ", level)
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch t[k].(type) {
			case map[string]any, []any:
				buf.WriteString(pad + k + ":\n")
				writeText(buf, t[k], level+1)
			default:
				buf.WriteString(pad + k + ": " + scalar(t[k]) + "\n")
			}
		}
	case []any:
		for i, it := range t {
			switch it.(type) {
			case map[string]any, []any:
				if i > 0 {
					buf.WriteByte('\n')
				}
				writeText(buf, it, level)
			default:
				buf.WriteString(pad + "- " + scalar(it) + "\n")
			}
		}
	default:
		buf.WriteString(pad + scalar(v) + "\n")
	}
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if float64(int64(t)) == t {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
