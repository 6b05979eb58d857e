package logging

import (
	"bytes"
	"io"
)

// MultiWriter sends every entry to the file sink and only WARN/ERROR entries to the
// console, keeping the terminal quiet while the file keeps full detail.
type MultiWriter struct {
	console io.Writer
	file    io.Writer
}

// NewMultiWriter builds a MultiWriter. A nil file means everything goes to the console.
func NewMultiWriter(console, file io.Writer) *MultiWriter {
	return &MultiWriter{console: console, file: file}
}

func (t *MultiWriter) Write(p []byte) (int, error) {
	if t.file == nil {
		return t.console.Write(p)
	}
	if lvl := levelOf(p); lvl == "WARN" || lvl == "ERROR" {
		if _, err := t.console.Write(p); err != nil {
			return 0, err
		}
	}
	return t.file.Write(p)
}

// levelOf extracts LEVEL from "[timestamp] LEVEL [component] ..."
func levelOf(p []byte) string {
	i := bytes.Index(p, []byte("] "))
	if i < 0 {
		return ""
	}
	rest := p[i+2:]
	j := bytes.IndexByte(rest, ' ')
	if j < 0 {
		return ""
	}
	return string(rest[:j])
}
