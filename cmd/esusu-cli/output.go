package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
)

type tableWriter struct {
	table *tablewriter.Table
}

func (t tableWriter) header(columns ...string) {
	t.table.SetHeader(columns)
}

func (t tableWriter) row(cells ...string) {
	t.table.Append(cells)
}

// resolveFormat maps "auto" to table output on a terminal and JSON
// otherwise, so piped output stays machine readable.
func resolveFormat(format string, stdout io.Writer) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return "table", nil
		}
		return "json", nil
	case "table":
		return "table", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func render(stdout, stderr io.Writer, format string, payload any, fill func(tableWriter)) int {
	mode, err := resolveFormat(format, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if mode == "json" {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(payload); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	table := tablewriter.NewWriter(stdout)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	fill(tableWriter{table: table})
	table.Render()
	return 0
}
