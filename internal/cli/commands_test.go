package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/checkin/internal/config"
	"github.com/JonMunkholm/checkin/internal/core"
	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/repository"
	"github.com/JonMunkholm/checkin/internal/web"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// startServer runs a real check-in server on SQLite and returns its URL.
func startServer(t *testing.T) string {
	t.Helper()
	repo, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "checkin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{}
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"test-key"}
	srv := httptest.NewServer(web.NewServer(core.NewService(repo, core.Options{}), cfg).Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestPreview(t *testing.T) {
	out, err := run(t, "preview", "testdata/roster.csv", "--format", "json")
	require.NoError(t, err)

	var summary PreviewSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, []string{"Notes"}, summary.Unmapped)
	assert.Equal(t, participant.ShirtYMD, summary.Records[1].Shirts)
	assert.Equal(t, participant.DefaultShirt, summary.Records[3].Shirts)

	text, err := run(t, "preview", "testdata/roster.csv", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, text, "4 rows, 1 duplicates")
	assert.Contains(t, text, "... 2 more rows")
}

func TestPreviewErrors(t *testing.T) {
	dir := t.TempDir()
	headerOnly := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("First Name,Last Name\n"), 0o644))

	_, err := run(t, "preview", headerOnly)
	require.ErrorIs(t, err, ingest.ErrTooFewRows)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, "preview", filepath.Join(dir, "missing.csv"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImportListCheckIn(t *testing.T) {
	url := startServer(t)
	global := []string{"--server", url, "--api-key", "test-key"}
	cli := func(args ...string) string {
		t.Helper()
		out, err := run(t, append(args, global...)...)
		require.NoError(t, err, out)
		return out
	}

	out := cli("import", "testdata/roster.csv", "--format", "json")
	var summary ImportSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 3, summary.Created)
	assert.Equal(t, 1, summary.Duplicates)

	out = cli("import", "testdata/roster.csv")
	assert.Contains(t, out, "Imported 0 participants")
	assert.Contains(t, out, "3 already registered")

	out = cli("list", "--status", "pending", "--format", "yaml")
	var pending []participant.Participant
	require.NoError(t, yaml.Unmarshal([]byte(out), &pending))
	assert.Len(t, pending, 2)

	out = cli("checkin", "123", "--family")
	assert.Contains(t, out, "checked in  Ann")
	assert.Contains(t, out, "checked in  Bo")

	out = cli("list", "--status", "pending")
	assert.Contains(t, out, "0 participants")

	out = cli("checkin", "999")
	assert.Contains(t, out, "No participant with registrant id 999")

	out = cli("remove", "--registrant-id", "456", "--type", "Individual", "--first-name", "Cy")
	assert.Contains(t, out, "1 participants removed")

	_, err := run(t, append([]string{"clear"}, global...)...)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out = cli("clear", "--yes", "--format", "json")
	assert.JSONEq(t, `{"count":2}`, out)
}

func TestAPIErrorsSurface(t *testing.T) {
	url := startServer(t)

	_, err := run(t, "list", "--server", url, "--api-key", "wrong")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, describeError(err), "AUTH_INVALID_KEY")
}

type fakeSheet struct{ rows [][]ingest.Cell }

func (f fakeSheet) ReadRows(context.Context, string) ([][]ingest.Cell, error) { return f.rows, nil }

func TestImportSheetDryRun(t *testing.T) {
	orig := sheetOpener
	t.Cleanup(func() { sheetOpener = orig })
	sheetOpener = func(context.Context, string, string) (SheetReader, error) {
		return fakeSheet{rows: [][]ingest.Cell{
			{ingest.StringCell("Registrant Id"), ingest.StringCell("First Name"), ingest.StringCell("Checked In")},
			{ingest.NumberCell(789), ingest.StringCell("Eve"), ingest.BoolCell(true)},
		}}, nil
	}

	out, err := run(t, "import-sheet", "--credentials", "creds.json", "--spreadsheet", "abc", "--dry-run", "--format", "json")
	require.NoError(t, err)
	var summary PreviewSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Records, 1)
	assert.Equal(t, "789", summary.Records[0].RegistrantID)
	assert.True(t, summary.Records[0].CheckedIn)

	_, err = run(t, "import-sheet", "--credentials", "", "--spreadsheet", "")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTemplate(t *testing.T) {
	out, err := run(t, "template")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "template", []byte(out))

	path := filepath.Join(t.TempDir(), "template.xlsx")
	_, err = run(t, "template", "-o", path)
	require.NoError(t, err)
	rows, err := ingest.ReadFile(path, mustOpen(t, path))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ingest.TemplateHeader(), ingest.HeaderStrings(rows[0]))

	_, err = run(t, "template", "-o", filepath.Join(t.TempDir(), "template.pdf"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}
