// Package ui formats terminal output for the typesys commands.
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/typesystem/internal/manifest"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a titled terminal message with optional suggestions and hints
type Message struct {
	Level       Level
	Title       string
	Detail      []string
	Suggestions []string
	Hints       []string
	NoColor     bool
}

// Format renders the message
//
// Example output:
//
//	✗ TYPE NOT FOUND: System.Strng
//
//	   Did you mean: System.String?
//
//	   → List types: typesys types --namespace System
func (m Message) Format() string {
	var b strings.Builder

	symbol, attr := "✗", color.FgRed
	switch m.Level {
	case LevelWarning:
		symbol, attr = "!", color.FgYellow
	case LevelInfo:
		symbol, attr = "i", color.FgCyan
	}

	paint(m.NoColor, attr, color.Bold).Fprintf(&b, "%s %s\n", symbol, m.Title)
	body := paint(m.NoColor, attr)
	for _, line := range m.Detail {
		body.Fprintf(&b, "   %s\n", line)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		paint(m.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Hints) > 0 {
		b.WriteString("\n")
		hint := paint(m.NoColor, color.FgCyan)
		for _, h := range m.Hints {
			hint.Fprintf(&b, "   → %s\n", h)
		}
	}
	return b.String()
}

// Write renders the message to w
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.Format())
}

// TypeNotFound reports a reflection name that did not resolve
func TypeNotFound(name string, suggestions []string, noColor bool) Message {
	return Message{
		Title:       "TYPE NOT FOUND: " + name,
		Suggestions: suggestions,
		Hints: []string{
			"List types: typesys types",
			"Check manifests: typesys check",
		},
		NoColor: noColor,
	}
}

// ManifestProblems converts a manifest load failure into one message per
// problem. Errors that carry no manifest detail become a single message.
func ManifestProblems(err error, noColor bool) []Message {
	var list manifest.ErrorList
	if !errors.As(err, &list) {
		var one *manifest.ManifestError
		if !errors.As(err, &one) {
			return []Message{{Title: err.Error(), NoColor: noColor}}
		}
		list = manifest.ErrorList{one}
	}

	out := make([]Message, 0, len(list))
	for _, e := range list {
		m := Message{
			Title:   fmt.Sprintf("%s [%s]", e.Message, e.Code),
			NoColor: noColor,
		}
		if e.File != "" {
			m.Detail = append(m.Detail, "file: "+e.File)
		}
		if e.Type != "" {
			where := "type: " + e.Type
			if e.Member != "" {
				where += ", member: " + e.Member
			}
			m.Detail = append(m.Detail, where)
		}
		if e.Suggestion != "" {
			m.Hints = append(m.Hints, e.Suggestion)
		}
		out = append(out, m)
	}
	return out
}

// Success renders a success line
func Success(w io.Writer, message string, noColor bool) {
	paint(noColor, color.FgGreen, color.Bold).Fprintf(w, "✓ %s\n", message)
}
