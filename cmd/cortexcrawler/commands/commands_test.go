package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := NewRootCommand()
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func newItemsServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer local-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"items": []any{
				map[string]any{"id": 1, "name": "alpha"},
				map[string]any{"id": 2, "name": "beta"},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractAndHistory(t *testing.T) {
	server := newItemsServer(t)
	dir := t.TempDir()
	requestPath := filepath.Join(dir, "request.json5")
	dbPath := filepath.Join(dir, "history.db")

	writeFile(t, requestPath, `{
		// the token lives in request.local.json5
		endpoint: "`+server.URL+`/items",
		authentication: { type: "bearer" },
		dataMapping: { rootPath: "items" },
	}`)
	writeFile(t, filepath.Join(dir, "request.local.json5"), `{
		authentication: { type: "bearer", token: "local-token" },
	}`)

	out, err := run(t, "extract", requestPath, "--db", dbPath)
	require.NoError(t, err)
	require.Contains(t, out, "Extracted 2 records (format: json, pages: 1)")
	require.Contains(t, out, "Object with 2 fields: id, name")
	require.Contains(t, out, "Pages fetched")

	out, err = run(t, "history", "--db", dbPath)
	require.NoError(t, err)
	require.Contains(t, out, server.URL+"/items")
	require.Contains(t, out, "GET")
}

func TestExtractJSON(t *testing.T) {
	server := newItemsServer(t)
	dir := t.TempDir()
	requestPath := filepath.Join(dir, "request.json5")
	writeFile(t, requestPath, `{
		endpoint: "http://unused.invalid",
		authentication: { type: "bearer", token: "local-token" },
		dataMapping: { rootPath: "items" },
	}`)

	out, err := run(t, "extract", requestPath, "--json", "--endpoint", server.URL)
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, float64(2), res["recordCount"])
	require.Equal(t, float64(1), res["pagesFetched"])
	require.Contains(t, res, "timings")
}

func TestExtractFailureIsRecorded(t *testing.T) {
	server := newItemsServer(t)
	dir := t.TempDir()
	requestPath := filepath.Join(dir, "request.json5")
	dbPath := filepath.Join(dir, "history.db")
	writeFile(t, requestPath, `{ endpoint: "`+server.URL+`" }`)

	_, err := run(t, "extract", requestPath, "--db", dbPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")

	out, err := run(t, "history", "--db", dbPath, "--limit", "5")
	require.NoError(t, err)
	require.Contains(t, out, "401")
}

func TestExtractMissingRequestFile(t *testing.T) {
	_, err := run(t, "extract", filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorContains(t, err, "does not exist")
}

func TestWatchRuns(t *testing.T) {
	server := newItemsServer(t)
	dir := t.TempDir()
	requestPath := filepath.Join(dir, "request.json5")
	dbPath := filepath.Join(dir, "history.db")
	writeFile(t, requestPath, `{
		endpoint: "`+server.URL+`",
		authentication: { type: "bearer", token: "local-token" },
		dataMapping: { rootPath: "items" },
	}`)

	out, err := run(t, "watch", requestPath, "--db", dbPath, "--every", "10ms", "--runs", "2")
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count([]byte(out), []byte("2 records from 1 pages")))

	out, err = run(t, "history", "--db", dbPath)
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count([]byte(out), []byte(server.URL)))
}

func TestHistoryEmpty(t *testing.T) {
	out, err := run(t, "history", "--db", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.Contains(t, out, "No runs recorded yet.")
}

func TestWatchOnSchedule(t *testing.T) {
	server := newItemsServer(t)
	dir := t.TempDir()
	requestPath := filepath.Join(dir, "request.json5")
	writeFile(t, requestPath, `{
		endpoint: "`+server.URL+`",
		authentication: { type: "bearer", token: "local-token" },
		dataMapping: { rootPath: "items" },
	}`)

	out, err := run(t, "watch", requestPath, "--db", filepath.Join(dir, "history.db"), "--cron", "@every 1s", "--runs", "1")
	require.NoError(t, err)
	require.Contains(t, out, "2 records from 1 pages")

	_, err = run(t, "watch", requestPath, "--cron", "whenever")
	require.ErrorContains(t, err, "invalid cron schedule")
}
