// Package report renders evaluated exams as the plain-text summary pasted
// into the clinical note and as xlsx workbooks for cohort exports.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ehr/examscore/internal/scoring"
)

// Entry is one score line of a report.
type Entry struct {
	Title  string
	Label  string // e.g. lesion site, empty for single-instance scores
	Result scoring.Result
}

// Evaluation is the report view of an evaluated exam.
type Evaluation struct {
	PatientID   string
	Specialty   scoring.Specialty
	EvaluatedAt time.Time
	Entries     []Entry
	Findings    []string
	Notes       string
}

// Text renders ev deterministically: the same evaluation always produces the
// same bytes.
func Text(ev Evaluation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s exam", specialtyTitle(ev.Specialty))
	if ev.PatientID != "" {
		fmt.Fprintf(&b, " - patient %s", ev.PatientID)
	}
	if !ev.EvaluatedAt.IsZero() {
		fmt.Fprintf(&b, " - %s", ev.EvaluatedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")

	b.WriteString("\nScores\n")
	if len(ev.Entries) == 0 {
		b.WriteString("  none\n")
	}
	for _, e := range ev.Entries {
		b.WriteString("  ")
		b.WriteString(Line(e))
		b.WriteString("\n")
		for _, w := range e.Result.Warnings {
			fmt.Fprintf(&b, "    warning: %s\n", w)
		}
	}

	if len(ev.Findings) > 0 {
		b.WriteString("\nFindings\n")
		for _, f := range ev.Findings {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	if notes := strings.TrimSpace(ev.Notes); notes != "" {
		b.WriteString("\nNotes\n")
		for _, line := range strings.Split(notes, "\n") {
			fmt.Fprintf(&b, "  %s\n", strings.TrimRight(line, " \t\r"))
		}
	}
	return b.String()
}

// Line formats one score as a report line.
// Missing inputs render as "insufficient data".
func Line(e Entry) string {
	title := e.Title
	if title == "" {
		title = string(e.Result.Score)
	}
	if e.Label != "" {
		title += " (" + e.Label + ")"
	}
	r := e.Result
	switch r.Status {
	case scoring.StatusInsufficientData:
		return title + ": " + scoring.InsufficientData
	case scoring.StatusUndetermined:
		return title + ": undetermined — " + r.Interpretation
	}
	return title + ": " + r.Display + " — " + r.Interpretation
}

func specialtyTitle(s scoring.Specialty) string {
	if s == "" {
		return "Specialty"
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
