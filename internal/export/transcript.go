// Package export renders finished practice sessions for download.
package export

import "strings"

const (
	SpeakerInterviewer = "Interviewer"
	SpeakerCandidate   = "You"

	// DefaultTranscriptName is the file name used when no path is given.
	DefaultTranscriptName = "interview-transcript.txt"
	// DefaultWorkbookName is the report file name used when no path is given.
	DefaultWorkbookName = "practice-report.xlsx"
)

// Entry is one speaker turn of a transcript.
type Entry struct {
	Speaker string
	Text    string
}

// Transcript renders entries as "<Speaker>:\n<text>\n\n" blocks.
func Transcript(entries []Entry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry.Speaker)
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(entry.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}
