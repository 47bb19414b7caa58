package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validOutput(output string) bool {
	switch output {
	case outputText, outputJSON, outputYAML:
		return true
	default:
		return false
	}
}

type reportView struct {
	Mode         string           `json:"mode" yaml:"mode"`
	StartedAt    time.Time        `json:"startedAt" yaml:"startedAt"`
	FinishedAt   time.Time        `json:"finishedAt" yaml:"finishedAt"`
	DurationMS   int64            `json:"durationMs" yaml:"durationMs"`
	TotalDeleted int64            `json:"totalDeleted" yaml:"totalDeleted"`
	Collections  []collectionView `json:"collections" yaml:"collections"`
}

type collectionView struct {
	Name     string        `json:"name" yaml:"name"`
	Before   int64         `json:"before" yaml:"before"`
	After    *int64        `json:"after,omitempty" yaml:"after,omitempty"`
	Deleted  int64         `json:"deleted" yaml:"deleted"`
	Outcomes []outcomeView `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

type outcomeView struct {
	Strategy string `json:"strategy" yaml:"strategy"`
	Found    int64  `json:"found" yaml:"found"`
	Deleted  int64  `json:"deleted" yaml:"deleted"`
	Status   string `json:"status" yaml:"status"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newReportView(report sanitizer.RunReport) reportView {
	view := reportView{
		Mode:         report.Mode.String(),
		StartedAt:    report.StartedAt.UTC(),
		FinishedAt:   report.FinishedAt.UTC(),
		DurationMS:   report.Duration().Milliseconds(),
		TotalDeleted: report.TotalDeleted,
		Collections:  make([]collectionView, 0, len(report.PreRunCounts)),
	}

	for _, name := range report.Collections() {
		cv := collectionView{
			Name:    name,
			Before:  report.PreRunCounts[name],
			Deleted: report.DeletedIn(name),
		}
		if after, ok := report.PostRunCounts[name]; ok {
			cv.After = &after
		}

		for _, o := range report.PerCollection[name] {
			cv.Outcomes = append(cv.Outcomes, outcomeView{
				Strategy: string(o.Strategy),
				Found:    o.Found,
				Deleted:  o.Deleted,
				Status:   string(o.Status),
				Error:    o.ErrorMessage(),
			})
		}

		view.Collections = append(view.Collections, cv)
	}

	return view
}

func renderReport(w io.Writer, output string, report sanitizer.RunReport) error {
	view := newReportView(report)

	switch output {
	case outputJSON:
		encoded, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(encoded))

		return err

	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}

		return enc.Close()

	default:
		return renderText(w, view)
	}
}

// formatAfter renders a missing post-run count, e.g. of an aborted run, as "n/a".
func formatAfter(after *int64) string {
	if after == nil {
		return "n/a"
	}

	return strconv.FormatInt(*after, 10)
}

// renderText prints one row per collection followed by the strategies that touched it.
// Colors are only emitted when w is a terminal.
func renderText(w io.Writer, view reportView) error {
	r := lipgloss.NewRenderer(w)
	heading := r.NewStyle().Bold(true)
	name := r.NewStyle().Width(20)
	number := r.NewStyle().Width(10).Align(lipgloss.Right)
	dim := r.NewStyle().Faint(true)
	failed := r.NewStyle().Foreground(lipgloss.Color("9"))

	var b strings.Builder

	b.WriteString(heading.Render(fmt.Sprintf("Sanitizer report (%s)", view.Mode)))
	b.WriteString("\n")
	b.WriteString(dim.Render(fmt.Sprintf("started %s, took %dms",
		view.StartedAt.Format(time.RFC3339), view.DurationMS)))
	b.WriteString("\n\n")

	b.WriteString(heading.Render(name.Render("collection") +
		number.Render("before") + number.Render("deleted") + number.Render("after")))
	b.WriteString("\n")

	for _, c := range view.Collections {
		b.WriteString(name.Render(c.Name) + number.Render(strconv.FormatInt(c.Before, 10)) +
			number.Render(strconv.FormatInt(c.Deleted, 10)) + number.Render(formatAfter(c.After)))
		b.WriteString("\n")

		for _, o := range c.Outcomes {
			line := fmt.Sprintf("  %-14s found=%d deleted=%d %s", o.Strategy, o.Found, o.Deleted, o.Status)
			if o.Error != "" {
				b.WriteString(failed.Render(line + ": " + o.Error))
			} else {
				b.WriteString(dim.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(heading.Render(fmt.Sprintf("Total deleted: %d", view.TotalDeleted)))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())

	return err
}
