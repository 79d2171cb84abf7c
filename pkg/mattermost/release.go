package mattermost

import (
	"fmt"

	"github.com/user/tagrelease/pkg/release"
)

const (
	colorSucceeded = "#2e7d32"
	colorAborted   = "#f9a825"
	colorFailed    = "#c62828"
)

// ReleaseMessage summarizes a batch of release results as one post.
func ReleaseMessage(results []*release.Result) Message {
	title := summaryTitle(results)
	color := colorSucceeded
	switch release.ExitCode(results) {
	case release.ExitAborted:
		color = colorAborted
	case release.ExitFailed:
		color = colorFailed
	}

	return Message{
		Attachments: []Attachment{{
			Fallback: title,
			Color:    color,
			Title:    title,
			Text:     release.FormatMarkdown(results),
		}},
	}
}

func summaryTitle(results []*release.Result) string {
	var ok, aborted, failed int
	for _, r := range results {
		switch r.Status {
		case release.StatusSucceeded:
			ok++
		case release.StatusAborted:
			aborted++
		default:
			failed++
		}
	}

	if len(results) == 1 {
		return "Release " + release.Headline(results[0])
	}
	return fmt.Sprintf("Release run: %d succeeded, %d aborted, %d failed", ok, aborted, failed)
}
