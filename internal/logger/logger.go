// Package logger collects build diagnostics and renders them the way a
// compiler front-end does: streamed as they happen, each carrying the
// source line it refers to, sorted by location before being drained.
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/term"
)

type Kind uint8

const (
	Error Kind = iota
	Warning
	Info
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Loc is a 0-based byte offset from the start of a source file.
type Loc struct{ Start int32 }

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 { return r.Loc.Start + r.Len }

type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int
	LineText string
}

type Msg struct {
	Kind     Kind
	Text     string
	Location *MsgLocation
	Plugin   string
}

func (m Msg) String() string {
	var b strings.Builder
	if m.Plugin != "" {
		fmt.Fprintf(&b, "[plugin %s] ", m.Plugin)
	}
	if m.Location != nil {
		fmt.Fprintf(&b, "%s:%d:%d: ", m.Location.File, m.Location.Line, m.Location.Column)
	}
	fmt.Fprintf(&b, "%s: %s", m.Kind, m.Text)
	return b.String()
}

// Log is the sink every component writes diagnostics into. It is safe for
// concurrent use: many workers may call AddMsg while the driver thread
// holds the only reference that later calls Done.
type Log struct {
	mu       sync.Mutex
	msgs     []Msg
	errCount int
}

func NewLog() *Log { return &Log{} }

func (l *Log) AddMsg(msg Msg) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg.Kind == Error {
		l.errCount++
	}
	l.msgs = append(l.msgs, msg)
}

func (l *Log) AddError(loc *MsgLocation, text string) {
	l.AddMsg(Msg{Kind: Error, Text: text, Location: loc})
}

func (l *Log) AddWarning(loc *MsgLocation, text string) {
	l.AddMsg(Msg{Kind: Warning, Text: text, Location: loc})
}

func (l *Log) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errCount > 0
}

// Done drains and returns every message sorted by file then line then
// column, matching the order a reader scans a terminal top to bottom.
func (l *Log) Done() []Msg {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Msg, len(l.msgs))
	copy(out, l.msgs)
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].Location, out[j].Location
		if li == nil && lj != nil {
			return true
		}
		if li != nil && lj == nil {
			return false
		}
		if li == nil && lj == nil {
			return false
		}
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Line != lj.Line {
			return li.Line < lj.Line
		}
		return li.Column < lj.Column
	})
	return out
}

// UseColor reports whether diagnostics written to stderr should carry ANSI
// color codes, gated on the teacher's own condition (an interactive
// terminal) but delegated to golang.org/x/term instead of per-OS syscalls.
func UseColor() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func PrintToStderr(msgs []Msg) {
	color := UseColor()
	for _, msg := range msgs {
		fmt.Fprintln(os.Stderr, renderMsg(msg, color))
	}
}

func renderMsg(msg Msg, color bool) string {
	if !color {
		return msg.String()
	}
	code := "33" // yellow for warning
	switch msg.Kind {
	case Error:
		code = "31"
	case Info:
		code = "36"
	}
	return "\x1b[1;" + code + "m" + msg.String() + "\x1b[0m"
}
