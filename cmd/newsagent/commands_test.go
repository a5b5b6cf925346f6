package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `tagging:
  interests: [Go]
  categories: [Tech]
database:
  driver: sqlite
  dsn: ` + filepath.Join(dir, "news.db") + `
logging:
  level: error
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "newsagent version dev"))
}

func TestCommandsAgainstEmptyStore(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DATABASE_DSN", "")
	path := writeConfig(t)

	out, err := run(t, "--config", path, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Ingestion complete. 0 new articles added.")

	out, err = run(t, "--config", path, "query", "latest", "on", "my", "project")
	require.NoError(t, err)
	assert.Equal(t, "No matching articles found.\n", out)

	out, err = run(t, "--config", path, "articles", "--relevance", "high")
	require.NoError(t, err)
	assert.Equal(t, "No matching articles found.\n", out)

	_, err = run(t, "--config", path, "articles", "--relevance", "urgent")
	assert.ErrorContains(t, err, "unknown relevance")
}

func TestMissingConfigFails(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "ingest")
	assert.ErrorContains(t, err, "loading config")
}
