package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/quipper/poc/gradebook/internal/roster"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

var (
	ana   = roster.Student{Name: "Ana", LastName: "Lopez", Subject: "Math", Grade: 6.2}
	bruno = roster.Student{Name: "Bruno", LastName: "Diaz", Subject: "History", Grade: 4.5}
)

// cliEnv runs commands against one sqlite file.
type cliEnv struct {
	db string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Cleanup(func() { logger.InitializeWriter("info", os.Stdout) })
	return &cliEnv{db: filepath.Join(t.TempDir(), "gradebook.db")}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--storage", "sqlite", "--db", e.db, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (e *cliEnv) add(t *testing.T, st roster.Student) {
	t.Helper()
	_, _, err := e.run(t, "", "add", "--name", st.Name, "--last-name", st.LastName,
		"--subject", st.Subject, "--grade", roster.DraftFromStudent(st).Grade)
	require.NoError(t, err)
}

func (e *cliEnv) export(t *testing.T) roster.Roster {
	t.Helper()
	out, _, err := e.run(t, "", "export")
	require.NoError(t, err)
	var r roster.Roster
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	return r
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "gradebook", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "tui", "list", "stats", "add", "delete", "export", "import"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"config", "storage", "db", "redis-addr", "key", "log-level"} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, "", f.DefValue)
	}

	deleteCmd, _, err := cmd.Find([]string{"delete"})
	require.NoError(t, err)
	yes := deleteCmd.Flags().Lookup("yes")
	require.NotNil(t, yes)
	assert.Equal(t, "y", yes.Shorthand)
}

func TestInvalidStorage(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run(t, "", "--storage", "mongo", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAddListStats(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, roster.EmptyPlaceholder)

	out, _, err = e.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Average:        N/A")

	out, _, err = e.run(t, "", "add", "--name", "Ana", "--last-name", "Lopez", "--subject", "Math", "--grade", "6.2")
	require.NoError(t, err)
	assert.Equal(t, "Added Ana Lopez (Math, 6.2): good work\n", out)
	e.add(t, bruno)

	out, _, err = e.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Lopez")
	assert.Contains(t, out, "good work")
	assert.Contains(t, out, "needs improvement")
	assert.NotContains(t, out, roster.EmptyPlaceholder)

	out, _, err = e.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Average:        5.35")
	assert.Contains(t, out, "Total:          2")
	assert.Contains(t, out, "Must take exam: 1")
	assert.Contains(t, out, "Exempted:       1")
}

func TestAddInvalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{
			name:    "grade out of range",
			args:    []string{"--name", "Ana", "--last-name", "Lopez", "--subject", "Math", "--grade", "8"},
			wantMsg: "grade:",
		},
		{
			name:    "digit in name",
			args:    []string{"--name", "Ana1", "--last-name", "Lopez", "--subject", "Math", "--grade", "6"},
			wantMsg: "name: name must not contain digits",
		},
		{
			name:    "missing subject",
			args:    []string{"--name", "Ana", "--last-name", "Lopez", "--grade", "6"},
			wantMsg: "subject: subject is a required field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCLIEnv(t)
			_, stderr, err := e.run(t, "", append([]string{"add"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Equal(t, roster.InvalidDraftMessage, err.Error())
			assert.Contains(t, stderr, tt.wantMsg)
			assert.Empty(t, e.export(t))
		})
	}
}

func TestDelete(t *testing.T) {
	e := newCLIEnv(t)
	e.add(t, ana)
	e.add(t, bruno)

	out, _, err := e.run(t, "n\n", "delete", "0")
	require.NoError(t, err)
	assert.Contains(t, out, roster.DeletePrompt)
	assert.Contains(t, out, "Cancelled")
	assert.Len(t, e.export(t), 2)

	out, _, err = e.run(t, "", "delete", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out, _, err = e.run(t, "y\n", "delete", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted student 0")
	assert.Equal(t, roster.Roster{bruno}, e.export(t))

	_, _, err = e.run(t, "", "delete", "--yes", "0")
	require.NoError(t, err)
	assert.Empty(t, e.export(t))

	_, _, err = e.run(t, "", "delete", "-y", "3")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	_, _, err = e.run(t, "", "delete", "first")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExport(t *testing.T) {
	e := newCLIEnv(t)
	e.add(t, ana)
	e.add(t, bruno)

	assert.Equal(t, roster.Roster{ana, bruno}, e.export(t))

	out, _, err := e.run(t, "", "export", "--format", "yaml")
	require.NoError(t, err)
	var r roster.Roster
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, roster.Roster{ana, bruno}, r)
	assert.Contains(t, out, "lastName: Lopez")

	path := filepath.Join(t.TempDir(), "roster.yml")
	_, _, err = e.run(t, "", "export", "--out", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "grade: 6.2")

	_, _, err = e.run(t, "", "export", "--format", "xml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImport(t *testing.T) {
	e := newCLIEnv(t)
	e.add(t, bruno)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "roster.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[
  {"name":"Ana","lastName":"Lopez","subject":"Math","grade":6.2}
]`), 0o600))
	out, _, err := e.run(t, "", "import", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 students (1 total)")
	assert.Equal(t, roster.Roster{ana}, e.export(t))

	yamlPath := filepath.Join(dir, "more.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("- name: Bruno\n  lastName: Diaz\n  subject: History\n  grade: 4.5\n"), 0o600))
	_, _, err = e.run(t, "", "import", "--append", yamlPath)
	require.NoError(t, err)
	assert.Equal(t, roster.Roster{ana, bruno}, e.export(t))

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`[
  {"name":"Carla","lastName":"Soto","subject":"Art","grade":7},
  {"name":"R2D2","lastName":"Droid","subject":"Math","grade":9}
]`), 0o600))
	_, stderr, err := e.run(t, "", "import", badPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "entry 1: name: name must not contain digits")
	assert.Contains(t, stderr, "entry 1: grade:")
	assert.Equal(t, roster.Roster{ana, bruno}, e.export(t))

	_, _, err = e.run(t, "", "import", filepath.Join(dir, "missing.json"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImport_GradeAsString(t *testing.T) {
	e := newCLIEnv(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "roster.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[
  {"name":"Ana","lastName":"Lopez","subject":"Math","grade":"6.2"},
  {"name":"Bruno","lastName":"Diaz","subject":"History","grade":4.5}
]`), 0o600))
	_, _, err := e.run(t, "", "import", jsonPath)
	require.NoError(t, err)
	assert.Equal(t, roster.Roster{ana, bruno}, e.export(t))

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`[
  {"name":"Carla","lastName":"Soto","subject":"Art","grade":"seven"},
  {"name":"Dani","lastName":"Ruiz","subject":"Art","grade":null}
]`), 0o600))
	_, stderr, err := e.run(t, "", "import", badPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "entry 0: grade: grade must be a number")
	assert.Contains(t, stderr, "entry 1: grade: grade is a required field")
	assert.Equal(t, roster.Roster{ana, bruno}, e.export(t))
}

func TestDecodeDrafts(t *testing.T) {
	tests := []struct {
		name, format, data string
		want               []roster.FormDraft
		wantErr            bool
	}{
		{
			name:   "json number",
			format: FormatJSON,
			data:   `[{"name":"Ana","lastName":"Lopez","subject":"Math","grade":6.2}]`,
			want:   []roster.FormDraft{{Name: "Ana", LastName: "Lopez", Subject: "Math", Grade: "6.2"}},
		},
		{
			name:   "json string",
			format: FormatJSON,
			data:   `[{"name":"Ana","lastName":"Lopez","subject":"Math","grade":" 6.2 "}]`,
			want:   []roster.FormDraft{{Name: "Ana", LastName: "Lopez", Subject: "Math", Grade: " 6.2 "}},
		},
		{
			name:   "yaml quoted",
			format: FormatYAML,
			data:   "- name: Ana\n  lastName: Lopez\n  subject: Math\n  grade: \"6.2\"\n",
			want:   []roster.FormDraft{{Name: "Ana", LastName: "Lopez", Subject: "Math", Grade: "6.2"}},
		},
		{
			name:   "yaml missing grade",
			format: FormatYAML,
			data:   "- name: Ana\n  lastName: Lopez\n  subject: Math\n  grade: ~\n",
			want:   []roster.FormDraft{{Name: "Ana", LastName: "Lopez", Subject: "Math"}},
		},
		{name: "yaml list grade", format: FormatYAML, data: "- grade: [6]\n", wantErr: true},
		{name: "not an array", format: FormatJSON, data: `{"name":"Ana"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeDrafts([]byte(tt.data), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportImport_XLSX(t *testing.T) {
	src := newCLIEnv(t)
	src.add(t, ana)
	src.add(t, bruno)

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	_, _, err := src.run(t, "", "export", "--out", path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Len(t, rows, 3)
	assert.Equal(t, sheetHeaders, rows[0])
	assert.Equal(t, []string{"Ana", "Lopez", "Math", "6.2", string(roster.GoodWork)}, rows[1])

	dst := newCLIEnv(t)
	out, _, err := dst.run(t, "", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 students (2 total)")
	assert.Equal(t, roster.Roster{ana, bruno}, dst.export(t))
}

func TestImport_XLSXRejectsInvalidRows(t *testing.T) {
	e := newCLIEnv(t)
	e.add(t, ana)

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Name", "Last name", "Subject", "Grade"},
		{"Carla", "Soto", "Art", "seven"},
		{},
		{"Dani", "Ruiz"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, stderr, err := e.run(t, "", "import", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "entry 0: grade: grade must be a number")
	assert.Contains(t, stderr, "entry 1: subject: subject is a required field")
	assert.Equal(t, roster.Roster{ana}, e.export(t))
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		flag, path, want string
		wantErr          bool
	}{
		{"", "", FormatJSON, false},
		{"", "a.yaml", FormatYAML, false},
		{"", "a.YML", FormatYAML, false},
		{"", "a.json", FormatJSON, false},
		{"json", "a.yaml", FormatJSON, false},
		{"", "grades.xlsx", FormatXLSX, false},
		{"xlsx", "", FormatXLSX, false},
		{"csv", "", "", true},
	}
	for _, tt := range tests {
		got, err := formatFor(tt.flag, tt.path)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
