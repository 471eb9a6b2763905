// This file is part of dwarfrefine.
//
// dwarfrefine is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// dwarfrefine is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with dwarfrefine.  If not, see <https://www.gnu.org/licenses/>.

// Package logger is a small ring-buffer log, used throughout the evaluator
// and rewriter to record the "unsupported attribute", "absent target" and
// "duplicate relocation" conditions that are allowed to continue rather than
// abort (see the error handling design in SPEC_FULL.md §6.2).
//
// Every entry is also forwarded to a logrus.Logger so that a long-running
// caller (or a test harness capturing stderr) sees the same information in
// the usual structured form, while Write()/Tail() give access to the most
// recent entries regardless of where stderr ends up.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Permission gates whether a call to Log/Logf actually records anything.
// Most callers use the Allow sentinel; tests make use of custom
// implementations to exercise the gate.
type Permission interface {
	AllowLogging() bool
}

type allowPermission struct{}

func (allowPermission) AllowLogging() bool { return true }

// Allow is a Permission that always allows logging.
var Allow Permission = allowPermission{}

// Logger is a fixed-capacity ring buffer of formatted "tag: detail" log
// lines, additionally mirrored to a logrus.Logger.
type Logger struct {
	entries []string
	next    int
	full    bool

	logrus *logrus.Logger
}

// NewLogger creates a Logger with room for capacity entries. Once full,
// the oldest entry is overwritten first.
func NewLogger(capacity int) *Logger {
	if capacity < 1 {
		capacity = 1
	}
	l := &Logger{
		entries: make([]string, capacity),
		logrus:  logrus.New(),
	}
	l.logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// central is the package-level Logger used by the Log/Logf/Write/Tail/Clear
// convenience functions.
var central = NewLogger(1000)

// SetOutput redirects the mirrored logrus output (defaults to stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.logrus.SetOutput(w)
}

// SetLevel sets the minimum logrus level that is mirrored to the logrus
// output. It does not affect the ring buffer, which always records
// everything that passes the Permission check.
func (l *Logger) SetLevel(level logrus.Level) {
	l.logrus.SetLevel(level)
}

func formatDetail(detail interface{}) string {
	switch v := detail.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Log appends a "tag: detail" entry if perm allows it. detail is formatted
// specially for errors and fmt.Stringer implementations; anything else is
// formatted with the %v verb.
func (l *Logger) Log(perm Permission, tag string, detail interface{}) {
	if perm == nil || !perm.AllowLogging() {
		return
	}
	l.append(tag, formatDetail(detail))
}

// Logf is like Log but the detail is built from a format string.
func (l *Logger) Logf(perm Permission, tag string, format string, args ...interface{}) {
	if perm == nil || !perm.AllowLogging() {
		return
	}
	l.append(tag, fmt.Sprintf(format, args...))
}

func (l *Logger) append(tag string, detail string) {
	line := fmt.Sprintf("%s: %s", tag, detail)

	l.entries[l.next] = line + "\n"
	l.next++
	if l.next >= len(l.entries) {
		l.next = 0
		l.full = true
	}

	l.logrus.WithField("tag", tag).Info(detail)
}

// Clear empties the ring buffer without affecting the mirrored logrus
// output.
func (l *Logger) Clear() {
	l.entries = make([]string, len(l.entries))
	l.next = 0
	l.full = false
}

// ordered returns the buffered lines in the order they were logged.
func (l *Logger) ordered() []string {
	if !l.full {
		return append([]string(nil), l.entries[:l.next]...)
	}
	out := make([]string, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	out = append(out, l.entries[:l.next]...)
	return out
}

// Write writes every buffered entry, oldest first, to w.
func (l *Logger) Write(w io.Writer) {
	for _, e := range l.ordered() {
		io.WriteString(w, e)
	}
}

// Tail writes the most recent n buffered entries, oldest first, to w. A
// request for more entries than are buffered is satisfied with however many
// are available.
func (l *Logger) Tail(w io.Writer, n int) {
	entries := l.ordered()
	if n < len(entries) {
		entries = entries[len(entries)-n:]
	}
	io.WriteString(w, strings.Join(entries, ""))
}

// Log records a "tag: detail" entry in the package-level logger.
func Log(perm Permission, tag string, detail interface{}) {
	central.Log(perm, tag, detail)
}

// Logf is the formatted variant of Log.
func Logf(perm Permission, tag string, format string, args ...interface{}) {
	central.Logf(perm, tag, format, args...)
}

// Write writes the package-level logger's buffered entries to w.
func Write(w io.Writer) {
	central.Write(w)
}

// Tail writes the package-level logger's most recent n entries to w.
func Tail(w io.Writer, n int) {
	central.Tail(w, n)
}

// Clear empties the package-level logger's buffer.
func Clear() {
	central.Clear()
}

// SetLevel adjusts the package-level logger's mirrored logrus level.
func SetLevel(level logrus.Level) {
	central.SetLevel(level)
}
