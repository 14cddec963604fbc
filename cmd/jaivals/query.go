package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"jaivals/internal/completion"
	"jaivals/internal/symbols"
)

var queryFormat string

func init() {
	for _, c := range []*cobra.Command{symbolsCmd, hoverCmd, completeCmd} {
		c.Flags().StringVar(&queryFormat, "format", "pretty", "output format (pretty|json)")
	}
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "Print the symbol index of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := indexOf(cmd, args[0])
		if err != nil {
			return err
		}
		if queryFormat == "json" {
			type entry struct {
				Name    string           `json:"name"`
				Records []symbols.Record `json:"records"`
			}
			entries := make([]entry, 0, idx.Len())
			for name, records := range idx.All() {
				entries = append(entries, entry{Name: name, Records: records})
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		var rows [][]string
		for name, records := range idx.All() {
			for _, r := range records {
				rows = append(rows, []string{name, r.Kind.String(), r.Range.String(), strconv.Itoa(r.DeclLine), r.Hover})
			}
		}
		printTable(cmd.OutOrStdout(), []string{"NAME", "KIND", "RANGE", "LINE", "HOVER"}, rows)
		return nil
	},
}

var hoverCmd = &cobra.Command{
	Use:   "hover <file> <line> <name>",
	Short: "Resolve a name at a 1-based line and print its hover text",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := parseLine(args[1])
		if err != nil {
			return err
		}
		idx, err := indexOf(cmd, args[0])
		if err != nil {
			return err
		}
		rec, ok := symbols.Lookup(idx, symbols.Normalize(args[2]), line)
		if !ok {
			return fmt.Errorf("%s is not visible at line %d", args[2], line)
		}
		if queryFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), rec)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.CyanString(rec.Hover))
		if rec.Doc != "" {
			fmt.Fprintln(out, rec.Doc)
		}
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <file> <line>",
	Short: "List completion items at a 1-based line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := parseLine(args[1])
		if err != nil {
			return err
		}
		idx, err := indexOf(cmd, args[0])
		if err != nil {
			return err
		}
		items := completion.At(idx, line)
		if queryFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), items)
		}
		rows := make([][]string, 0, len(items))
		for _, it := range items {
			rows = append(rows, []string{it.Label, it.Kind.String(), it.Detail, strings.ReplaceAll(it.InsertText, "\n", `\n`)})
		}
		printTable(cmd.OutOrStdout(), []string{"LABEL", "KIND", "DETAIL", "INSERT"}, rows)
		return nil
	},
}

// indexOf indexes file together with its imports and returns its index.
func indexOf(cmd *cobra.Command, file string) (*symbols.Index, error) {
	if err := checkQueryFormat(); err != nil {
		return nil, err
	}
	path, cfg, err := fileArg(cmd, file)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	ix, err := newIndexer(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	err = track("index", func() error {
		results, err := ix.IndexWithImports(ctx, path)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				current.log.Warn().Err(r.Err).Str("file", r.Path).Msg("indexed as empty")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	idx, ok := ix.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%s was not indexed", path)
	}
	return idx, nil
}

func checkQueryFormat() error {
	switch queryFormat {
	case "pretty", "json":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", queryFormat)
	}
}

func parseLine(s string) (int, error) {
	line, err := strconv.Atoi(s)
	if err != nil || line < 1 {
		return 0, fmt.Errorf("invalid line %q: expected a positive number", s)
	}
	return line, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes left-aligned columns; widths account for wide runes.
func printTable(out io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	writeRow := func(cells []string, paint func(string) string) {
		var b strings.Builder
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(paint(cell))
				break
			}
			b.WriteString(paint(runewidth.FillRight(cell, widths[i])))
			b.WriteString("  ")
		}
		fmt.Fprintln(out, b.String())
	}
	bold := color.New(color.Bold).SprintFunc()
	writeRow(header, func(s string) string { return bold(s) })
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
}
