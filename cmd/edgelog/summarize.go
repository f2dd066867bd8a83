package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kolkov/edgelog/internal/edgelog/edge"
	"github.com/kolkov/edgelog/internal/edgelog/resolve"
	"github.com/kolkov/edgelog/internal/edgelog/writer"
)

type summarizeOptions struct {
	csvPath string
	binary  string
}

func newSummarizeCmd() *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize [flags] LOG...",
		Short: "Count the edges executed in one or more traces",
		Long: `summarize prints one row per trace: the number of edges, the number of
distinct edges and, for enriched traces, how many edges of each kind were
taken.

With --binary, enriched records are also attributed to the Go modules the
executable was built from.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd.OutOrStdout(), opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.csvPath, "csv", "c", "", "write the summary to this CSV file instead of printing a table")
	cmd.Flags().StringVar(&opts.binary, "binary", "", "attribute enriched records to the modules of this Go executable")
	return cmd
}

// summary is what summarize reports for one trace.
type summary struct {
	Path string

	// Compact is set for compact traces. Module and Goroutines are only
	// meaningful when it is, Kinds only when it is not.
	Compact bool
	Module  resolve.Module

	Edges      int
	Unique     int
	Goroutines int
	Kinds      map[edge.Kind]int

	// Skipped counts lines that were not trace records.
	Skipped int

	records []edge.Record
}

func runSummarize(w io.Writer, opts summarizeOptions, paths []string) error {
	summaries := make([]summary, 0, len(paths))
	for _, path := range paths {
		s, err := summarizeFile(path)
		if err != nil {
			return err
		}
		if s.Skipped > 0 {
			log.Warnf("%s: skipped %d lines that are not trace records", path, s.Skipped)
		}
		log.Debugf("%s: %d edges", path, s.Edges)
		summaries = append(summaries, s)
	}

	if opts.csvPath != "" {
		if err := writeSummaryCSV(opts.csvPath, summaries); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, renderSummary(summaries))
	}

	if opts.binary != "" {
		mods, err := loadModules(opts.binary)
		if err != nil {
			return err
		}
		var records []edge.Record
		for _, s := range summaries {
			records = append(records, s.records...)
		}
		fmt.Fprintln(w, renderModules(attribute(records, mods)))
	}
	return nil
}

// openTrace opens a trace file and reports whether it is in the compact
// encoding. Gzip input is decompressed transparently.
func openTrace(path string) (*bufio.Reader, io.Closer, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, false, err
	}
	r, err := writer.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, false, fmt.Errorf("%s: %w", path, err)
	}
	br := bufio.NewReader(r)
	head, err := br.Peek(len(writer.HeaderTag) + 1)
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return br, f, writer.IsCompact(string(head)), nil
}

func summarizeFile(path string) (summary, error) {
	r, c, compact, err := openTrace(path)
	if err != nil {
		return summary{}, err
	}
	defer c.Close()

	s := summary{Path: path, Compact: compact}
	if compact {
		tr, err := writer.ReadCompact(r)
		if err != nil {
			return summary{}, fmt.Errorf("%s: %w", path, err)
		}
		s.Module = tr.Module
		s.Edges = len(tr.Edges)
		seen := make(map[edge.Edge]struct{}, len(tr.Edges))
		for _, e := range tr.Edges {
			seen[e] = struct{}{}
			if e.Prev == 0 {
				s.Goroutines++
			}
		}
		s.Unique = len(seen)
		return s, nil
	}

	records, skipped, err := writer.ReadRecords(r)
	if err != nil {
		return summary{}, fmt.Errorf("%s: %w", path, err)
	}
	s.records = records
	s.Skipped = skipped
	s.Edges = len(records)
	s.Kinds = make(map[edge.Kind]int)
	seen := make(map[edge.Record]struct{}, len(records))
	for _, rec := range records {
		s.Kinds[rec.Kind]++
		seen[rec] = struct{}{}
	}
	s.Unique = len(seen)
	return s, nil
}

func summaryHeader() []string {
	header := []string{"log", "edges", "unique", "goroutines", "module"}
	for _, k := range edge.Kinds() {
		header = append(header, k.String())
	}
	return header
}

// summaryRow renders s. Columns that do not apply to the trace's encoding
// hold empty: goroutines and module for enriched traces, kinds for compact
// ones.
func summaryRow(s summary, empty string) []string {
	row := []string{s.Path, strconv.Itoa(s.Edges), strconv.Itoa(s.Unique)}
	if s.Compact {
		row = append(row, strconv.Itoa(s.Goroutines), modulePath(s.Module))
	} else {
		row = append(row, empty, empty)
	}
	for _, k := range edge.Kinds() {
		if s.Compact {
			row = append(row, empty)
			continue
		}
		row = append(row, strconv.Itoa(s.Kinds[k]))
	}
	return row
}

func modulePath(m resolve.Module) string {
	if m.Path == "" {
		return "?"
	}
	return m.Path
}

func writeSummaryCSV(path string, summaries []summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader()); err != nil {
		f.Close()
		return err
	}
	for _, s := range summaries {
		if err := w.Write(summaryRow(s, "")); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderSummary(summaries []summary) string {
	t := newTable(summaryHeader()...)
	for _, s := range summaries {
		t.Row(summaryRow(s, "-")...)
	}
	return t.String()
}
