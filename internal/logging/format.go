package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SourceLocation is the call site of a log statement
type SourceLocation struct {
	File     string
	Line     int
	Function string
}

// Entry is one structured log record
type Entry struct {
	Timestamp time.Time
	Level     Level
	Component string
	Source    SourceLocation
	Message   string
	Fields    map[string]interface{}
}

// Format renders an entry as a single line:
// [YYYY-MM-DD HH:MM:SS] LEVEL [component] file.go:line function message key=value...
// Fields are sorted by key so output is stable.
func Format(e Entry) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.Timestamp.Format("2006-01-02 15:04:05"))
	sb.WriteString("] ")
	sb.WriteString(e.Level.String())
	sb.WriteString(" [")
	sb.WriteString(e.Component)
	sb.WriteString("] ")
	fmt.Fprintf(&sb, "%s:%d %s ", e.Source.File, e.Source.Line, e.Source.Function)
	sb.WriteString(sanitize(e.Message))

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%s", k, sanitize(fmt.Sprintf("%v", e.Fields[k])))
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// sanitize replaces control characters other than tab with spaces so a single
// entry can never span lines or forge another entry.
func sanitize(msg string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, msg)
}
