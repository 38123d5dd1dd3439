package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/quipper/poc/gradebook/internal/roster"
)

// Transfer formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatXLSX = "xlsx"
)

// sheetName is the worksheet xlsx exports write and imports read first.
const sheetName = "Students"

var sheetHeaders = []string{"Name", "Last name", "Subject", "Grade", "Appreciation"}

// formatFor picks the format from an explicit flag or the file extension.
func formatFor(flag, path string) (string, error) {
	if flag == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return FormatYAML, nil
		case ".xlsx":
			return FormatXLSX, nil
		default:
			return FormatJSON, nil
		}
	}
	switch flag {
	case FormatJSON, FormatYAML, FormatXLSX:
		return flag, nil
	}
	return "", NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be json, yaml or xlsx", flag))
}

func encodeRoster(w io.Writer, format string, r roster.Roster) error {
	if r == nil {
		r = roster.Roster{}
	}
	switch format {
	case FormatXLSX:
		return writeSheet(w, r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// importEntry is one student as written in a JSON or YAML file. Grade may be
// a number or a numeric string.
type importEntry struct {
	Name     string     `json:"name" yaml:"name"`
	LastName string     `json:"lastName" yaml:"lastName"`
	Subject  string     `json:"subject" yaml:"subject"`
	Grade    gradeValue `json:"grade" yaml:"grade"`
}

func (e importEntry) draft() roster.FormDraft {
	return roster.FormDraft{Name: e.Name, LastName: e.LastName, Subject: e.Subject, Grade: string(e.Grade)}
}

// gradeValue keeps the grade as raw text so ParseDraft judges it.
type gradeValue string

func (g *gradeValue) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		*g = ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*g = gradeValue(s)
	default:
		*g = gradeValue(raw)
	}
	return nil
}

func (g *gradeValue) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: grade must be a single value", n.Line)
	}
	if n.Tag == "!!null" {
		*g = ""
		return nil
	}
	*g = gradeValue(n.Value)
	return nil
}

// decodeDrafts reads entries as raw drafts so every format goes through the
// same validation as a form submission.
func decodeDrafts(data []byte, format string) ([]roster.FormDraft, error) {
	if format == FormatXLSX {
		return readSheet(data)
	}
	var entries []importEntry
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &entries)
	} else {
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, err
	}
	drafts := make([]roster.FormDraft, 0, len(entries))
	for _, e := range entries {
		drafts = append(drafts, e.draft())
	}
	return drafts, nil
}

func writeSheet(w io.Writer, r roster.Roster) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for i, header := range sheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}
	for i, st := range r {
		row := []interface{}{st.Name, st.LastName, st.Subject, st.Grade, string(roster.AppreciationFor(st.Grade))}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// readSheet reads the first worksheet, skipping the header row. Columns are
// name, last name, subject and grade; later columns are ignored.
func readSheet(data []byte) ([]roster.FormDraft, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	var drafts []roster.FormDraft
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cells := make([]string, len(roster.Fields))
		copy(cells, row)
		if strings.Join(cells, "") == "" {
			continue
		}
		var d roster.FormDraft
		for j, fld := range roster.Fields {
			d = d.With(fld, cells[j])
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the roster as JSON, YAML or an xlsx sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatFor(format, out)
			if err != nil {
				return err
			}
			a, err := rootOpts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return WrapExitError(ExitCommandError, "create output file", err)
				}
				defer file.Close()
				w = file
			}
			if err := encodeRoster(w, f, a.Store.Students()); err != nil {
				return WrapExitError(ExitCommandError, "encode roster", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (json|yaml|xlsx, default from --out extension or json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var format string
	var appendMode bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the roster with students read from a JSON, YAML or xlsx file",
		Long: `Replace the roster with students read from a JSON, YAML or xlsx file.

Every entry is validated like a form submission. If any entry is invalid
nothing is imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := formatFor(format, path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return WrapExitError(ExitCommandError, "read input file", err)
			}
			entries, err := decodeDrafts(data, f)
			if err != nil {
				return WrapExitError(ExitFailure, "decode "+f, err)
			}
			imported, err := validateEntries(cmd.ErrOrStderr(), entries)
			if err != nil {
				return err
			}

			a, err := rootOpts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			next := imported
			if appendMode {
				next = append(a.Store.Students(), imported...)
			}
			if err := a.Store.ReplaceAll(cmd.Context(), next); err != nil {
				return WrapExitError(ExitCommandError, "save roster", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d students (%d total)\n", len(imported), len(next))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format (json|yaml|xlsx, default from extension)")
	cmd.Flags().BoolVar(&appendMode, "append", false, "append to the roster instead of replacing it")
	return cmd
}

// validateEntries runs every entry through ParseDraft and reports all
// failures before giving up.
func validateEntries(w io.Writer, entries []roster.FormDraft) (roster.Roster, error) {
	out := make(roster.Roster, 0, len(entries))
	failed := 0
	for i, e := range entries {
		st, err := roster.ParseDraft(e)
		if err != nil {
			failed++
			var verr *roster.ValidationError
			if !errors.As(err, &verr) {
				return nil, WrapExitError(ExitCommandError, "validate entries", err)
			}
			for _, f := range verr.Fields {
				fmt.Fprintf(w, "  entry %d: %s: %s\n", i, f.Field, f.Error)
			}
			continue
		}
		out = append(out, st)
	}
	if failed > 0 {
		return nil, NewExitError(ExitFailure, fmt.Sprintf("%d of %d entries are invalid, nothing imported", failed, len(entries)))
	}
	return out, nil
}
