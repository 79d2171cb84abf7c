package release

import (
	"fmt"
	"strings"
)

type OutputMode string

const (
	OutputAlways    OutputMode = "always"
	OutputOnFailure OutputMode = "on-failure"
)

func (m OutputMode) show(r *Result) bool {
	return m == OutputAlways || r.Status != StatusSucceeded
}

// Headline is a one-line description of a result, e.g.
// "libfoo-v2.3.0: succeeded (2.3.0)".
func Headline(r *Result) string {
	var sb strings.Builder
	sb.WriteString(r.Attempt.Event.TagName())
	sb.WriteString(": ")
	sb.WriteString(string(r.Status))

	switch r.Status {
	case StatusSucceeded:
		sb.WriteString(fmt.Sprintf(" (%s)", r.Version))
	case StatusAborted:
		sb.WriteString(fmt.Sprintf(" [%s] %s", r.Kind, r.Reason))
	default:
		sb.WriteString(fmt.Sprintf(" at %s [%s] %s", r.Stage, r.Kind, r.Reason))
	}
	return sb.String()
}

// FormatText renders results for a terminal. Stage logs are included for
// every result in OutputAlways mode and for unsuccessful ones otherwise.
func FormatText(results []*Result, mode OutputMode) string {
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(Headline(r))
		sb.WriteString("\n")
		if r.Note != "" {
			sb.WriteString(fmt.Sprintf("  note: %s\n", r.Note))
		}
		if !mode.show(r) {
			continue
		}
		for _, s := range r.Attempt.Stages {
			sb.WriteString(fmt.Sprintf("  %-12s %-8s %6dms  %s\n", s.Stage, s.Outcome, s.DurationMs, s.Message))
		}
	}
	return sb.String()
}

// FormatMarkdown renders results as a Mattermost message.
func FormatMarkdown(results []*Result) string {
	var sb strings.Builder

	sb.WriteString("## Release results\n\n")
	sb.WriteString("| Tag | Package | Status | Stage | Version | Details |\n")
	sb.WriteString("|-----|---------|--------|-------|---------|---------|\n")

	var failed []*Result
	for _, r := range results {
		details := r.Note
		if r.Status != StatusSucceeded {
			details = string(r.Kind)
			failed = append(failed, r)
		}

		pkg := r.Attempt.PackageName()
		if pkg == "" {
			pkg = "-"
		}

		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s %s | %s | %s | %s |\n",
			r.Attempt.Event.TagName(), pkg, statusEmoji(r.Status), r.Status, r.Stage, dash(r.Version), dash(escapeCell(details))))
	}

	if len(failed) > 0 {
		sb.WriteString(fmt.Sprintf("\n### Not released (%d)\n", len(failed)))
		for _, r := range failed {
			sb.WriteString(fmt.Sprintf("- **%s** at `%s`: %s\n", r.Attempt.Event.TagName(), r.Stage, r.Reason))
		}
	}

	return sb.String()
}

func statusEmoji(s Status) string {
	switch s {
	case StatusSucceeded:
		return "✅"
	case StatusAborted:
		return "⏭️"
	default:
		return "❌"
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
