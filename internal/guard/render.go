package guard

import (
	"fmt"
	"strings"

	"github.com/ghswitch/ghswitch/internal/style"
)

// RenderOptions controls how a Result is formatted.
type RenderOptions struct {
	// Terse collapses the report to one line per finding.
	Terse bool

	// Color enables lipgloss styling. Off, the output is plain text.
	Color bool
}

// Render formats a Result for the terminal. It never mutates the Result
// and performs no I/O, so the same Result can be rendered both ways.
func Render(res *Result, opts RenderOptions) string {
	if opts.Terse {
		return renderTerse(res, opts)
	}
	return renderVerbose(res, opts)
}

func renderTerse(res *Result, opts RenderOptions) string {
	var b strings.Builder
	for _, f := range res.Findings {
		fmt.Fprintf(&b, "%s %s\n", prefix(f.Severity, opts.Color), f.Message)
	}
	b.WriteString(verdictLine(res.Verdict, opts.Color))
	b.WriteString("\n")
	return b.String()
}

func renderVerbose(res *Result, opts RenderOptions) string {
	var b strings.Builder

	title := fmt.Sprintf("Identity validation for %s", res.Project)
	if opts.Color {
		title = style.Bold.Render(title)
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	for _, f := range res.Findings {
		fmt.Fprintf(&b, "%s %s\n", prefix(f.Severity, opts.Color), f.Message)
		for _, line := range f.Detail {
			if opts.Color {
				line = style.Dim.Render(line)
			}
			fmt.Fprintf(&b, "    %s\n", line)
		}
		for _, line := range f.Remediation {
			fmt.Fprintf(&b, "    %s\n", line)
		}
		for _, cmd := range f.Commands {
			if opts.Color {
				cmd = style.Command.Render(cmd)
			}
			fmt.Fprintf(&b, "      $ %s\n", cmd)
		}
	}

	if len(res.Notes) > 0 {
		b.WriteString("\n")
		for _, note := range res.Notes {
			if opts.Color {
				note = style.Dim.Render(note)
			}
			fmt.Fprintf(&b, "%s\n", note)
		}
	}

	b.WriteString("\n")
	b.WriteString(verdictLine(res.Verdict, opts.Color))
	b.WriteString("\n")
	return b.String()
}

func prefix(sev Severity, color bool) string {
	if color {
		switch sev {
		case Block:
			return style.ErrorPrefix
		case Warn:
			return style.WarningPrefix
		default:
			return style.SuccessPrefix
		}
	}
	switch sev {
	case Block:
		return "✗"
	case Warn:
		return "⚠"
	default:
		return "✓"
	}
}

func verdictLine(v Severity, color bool) string {
	switch v {
	case Block:
		return fmt.Sprintf("%s Validation failed, commit blocked", prefix(v, color))
	case Warn:
		return fmt.Sprintf("%s Validation passed with warnings", prefix(v, color))
	default:
		return fmt.Sprintf("%s Validation passed", prefix(v, color))
	}
}
