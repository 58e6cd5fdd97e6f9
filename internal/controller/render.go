package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
	m "gooze.dev/pkg/mutants/internal/model"
)

type mutantView struct {
	Name        string  `json:"name" yaml:"name"`
	Genre       m.Genre `json:"genre" yaml:"genre"`
	File        m.Path  `json:"file" yaml:"file"`
	Package     string  `json:"package" yaml:"package"`
	Function    string  `json:"function,omitempty" yaml:"function,omitempty"`
	ReturnType  string  `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	Line        int     `json:"line" yaml:"line"`
	Column      int     `json:"column" yaml:"column"`
	Replacement string  `json:"replacement" yaml:"replacement"`
	Diff        string  `json:"diff,omitempty" yaml:"diff,omitempty"`
}

type fileView struct {
	Path    m.Path `json:"path" yaml:"path"`
	Package string `json:"package" yaml:"package"`
}

func newMutantViews(mutants []m.Mutant, diffs map[string]string) []mutantView {
	views := make([]mutantView, 0, len(mutants))

	for _, mutant := range mutants {
		view := mutantView{
			Name:        mutant.Name(),
			Genre:       mutant.Genre,
			File:        mutant.File,
			Package:     mutant.Package,
			Line:        mutant.Span.Start.Line,
			Column:      mutant.Span.Start.Column,
			Replacement: mutant.Replacement,
			Diff:        diffs[mutant.Name()],
		}

		if mutant.Function != nil {
			view.Function = mutant.Function.QualifiedName()
			view.ReturnType = mutant.Function.ReturnType
		}

		views = append(views, view)
	}

	return views
}

func renderMutants(w io.Writer, mutants []m.Mutant, diffs map[string]string, format OutputFormat) error {
	views := newMutantViews(mutants, diffs)

	if format != FormatText {
		return encode(w, views, format)
	}

	var b strings.Builder

	for _, view := range views {
		b.WriteString(view.Name)
		b.WriteString("\n")

		if view.Diff != "" {
			b.WriteString(view.Diff)
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func renderFiles(w io.Writer, files []m.SourceFile, format OutputFormat) error {
	views := make([]fileView, 0, len(files))
	for _, file := range files {
		views = append(views, fileView{Path: file.RelPath, Package: file.Package})
	}

	if format != FormatText {
		return encode(w, views, format)
	}

	var b strings.Builder
	for _, view := range views {
		fmt.Fprintf(&b, "%s\n", view.Path)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func encode(w io.Writer, v any, format OutputFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	}

	return fmt.Errorf("unknown output format %q", format)
}

func renderSummaryTable(summary m.RunSummary) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Outcome", "Mutants"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	table.Append([]string{"caught", strconv.Itoa(summary.Caught)})
	table.Append([]string{"missed", strconv.Itoa(summary.Missed)})
	table.Append([]string{"timeout", strconv.Itoa(summary.Timeout)})
	table.Append([]string{"unviable", strconv.Itoa(summary.Unviable)})

	table.SetFooter([]string{
		fmt.Sprintf("Tested %d of %d", summary.Tested(), summary.Total),
		fmt.Sprintf("%.1f%%", summary.Score),
	})

	table.Render()

	return tableBuffer.String()
}

func summaryLine(summary m.RunSummary) string {
	line := fmt.Sprintf("%d mutants tested in %s: %d missed, %d caught, %d unviable",
		summary.Tested(), summary.Elapsed.Round(time.Second),
		summary.Missed, summary.Caught, summary.Unviable)

	if summary.Timeout > 0 {
		line += fmt.Sprintf(", %d timeouts", summary.Timeout)
	}

	if summary.Cancelled {
		line += " (interrupted)"
	}

	return line
}

func outcomeLine(outcome m.MutantOutcome) string {
	var total time.Duration
	for _, phase := range outcome.Phases {
		total += phase.Duration
	}

	return fmt.Sprintf("%-8s %s in %s", strings.ToUpper(string(outcome.Summary)),
		outcome.Scenario.Name(), total.Round(100*time.Millisecond))
}
