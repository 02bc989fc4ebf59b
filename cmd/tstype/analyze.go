// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/tstype/services/tstype/analyzer"
	"github.com/AleutianAI/tstype/services/tstype/ast"
	"github.com/AleutianAI/tstype/services/tstype/types"
)

const maxTextWidth = 40

// entryRecord is one recorded type in the analyze output.
type entryRecord struct {
	Path     string            `json:"path"`
	Node     ast.NodeID        `json:"node"`
	Kind     string            `json:"kind"`
	Location string            `json:"location"`
	Text     string            `json:"text"`
	Type     *types.Descriptor `json:"type"`
}

// analyzeReport is the --json form of the analyze output.
type analyzeReport struct {
	Snapshot    analyzer.Stats         `json:"snapshot"`
	Entries     []entryRecord          `json:"entries"`
	Diagnostics []*analyzer.Diagnostic `json:"diagnostics"`
	Error       string                 `json:"error,omitempty"`
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	var (
		asJSON   bool
		policy   string
		hoisting bool
		dialect  string
	)

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Analyze files or directories and print every recorded type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer c.flush(cmd.Context())

			if cmd.Flags().Changed("policy") {
				c.cfg.Analyzer.Policy = policy
			}
			if cmd.Flags().Changed("hoisting") {
				c.cfg.Analyzer.Hoisting = hoisting
			}
			if cmd.Flags().Changed("dialect") {
				c.cfg.Parser.Dialect = dialect
			}

			svc, err := c.newService()
			if err != nil {
				return err
			}
			snap, runErr := svc.Analyze(cmd.Context(), args)

			report := buildReport(snap, runErr)
			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				writeTable(out, report)
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&asJSON, "json", false, "Print JSON even on a terminal")
	flags.StringVar(&policy, "policy", "continue", "Diagnostic policy: continue or abort")
	flags.BoolVar(&hoisting, "hoisting", false, "Resolve forward references between top-level types")
	flags.StringVar(&dialect, "dialect", "auto", "Grammar: auto, typescript or tsx")
	return cmd
}

// buildReport flattens every cache entry of snap in path and node order.
func buildReport(snap *analyzer.Snapshot, runErr error) analyzeReport {
	report := analyzeReport{
		Snapshot:    snap.Stats(),
		Entries:     []entryRecord{},
		Diagnostics: []*analyzer.Diagnostic{},
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	for _, path := range snap.Paths() {
		f, ok := snap.File(path)
		if !ok {
			continue
		}
		for _, e := range f.Cache.Entries() {
			n := f.Tree.Node(e.Node)
			if n == nil {
				continue
			}
			report.Entries = append(report.Entries, entryRecord{
				Path:     path,
				Node:     e.Node,
				Kind:     n.Kind,
				Location: f.Tree.Location(n).String(),
				Text:     f.Tree.Text(n),
				Type:     types.Describe(e.Type),
			})
		}
		report.Diagnostics = append(report.Diagnostics, f.Diagnostics...)
	}
	return report
}

func writeJSON(w io.Writer, report analyzeReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	typeStyle    = cellStyle.Foreground(lipgloss.Color("10"))
	diagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	summaryStyle = lipgloss.NewStyle().Faint(true)
)

// writeTable renders the report as a styled table for terminals.
func writeTable(w io.Writer, report analyzeReport) {
	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, []string{
			e.Location,
			strconv.Itoa(int(e.Node)),
			e.Kind,
			truncate(e.Text, maxTextWidth),
			e.Type.Display,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("LOCATION", "NODE", "KIND", "TEXT", "TYPE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 4:
				return typeStyle
			default:
				return cellStyle
			}
		})
	fmt.Fprintln(w, t.Render())

	for _, d := range report.Diagnostics {
		fmt.Fprintln(w, diagStyle.Render(d.Error()))
	}
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%d files, %d entries, %d diagnostics, %d globals (snapshot %s)",
		report.Snapshot.Files, report.Snapshot.CacheEntries, report.Snapshot.Diagnostics,
		report.Snapshot.Globals, report.Snapshot.ID)))
	if report.Error != "" {
		fmt.Fprintln(w, diagStyle.Render("error: "+report.Error))
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
