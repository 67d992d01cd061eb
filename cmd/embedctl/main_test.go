package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/InQaaaaGit/tweet_embed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		target := r.URL.Query().Get("url")
		if strings.HasSuffix(target, "/500") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.OEmbedResult{
			URL:  target,
			HTML: `<blockquote><p>` + target + `</p></blockquote><script src="w.js"></script>`,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// execute выполняет embedctl с изолированным хранилищем кэша
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("FILE_STORAGE_PATH", filepath.Join(t.TempDir(), "cache.json"))
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("CONFIG", "")

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGenerateCommand(t *testing.T) {
	provider, _ := newProvider(t)

	stdout, _, err := execute(t, "", "generate", "--endpoint", provider.URL, "--mode", "blockquote", "https://twitter.com/a/status/1")
	require.NoError(t, err)
	assert.Equal(t, "<blockquote><p>https://twitter.com/a/status/1</p></blockquote>\n", stdout)
}

func TestGenerateCommand_Errors(t *testing.T) {
	provider, _ := newProvider(t)

	_, _, err := execute(t, "", "generate", "--endpoint", provider.URL, "--mode", "inline", "https://twitter.com/a/status/1")
	assert.Error(t, err)

	_, _, err = execute(t, "", "generate", "--endpoint", provider.URL, "https://twitter.com/a/status/500")
	assert.Error(t, err)

	_, _, err = execute(t, "", "generate")
	assert.Error(t, err)
}

func TestBatchCommand_Stdin(t *testing.T) {
	provider, hits := newProvider(t)

	input := "https://twitter.com/a/status/1\n\nhttps://twitter.com/a/status/500\nhttps://twitter.com/a/status/3\n"
	stdout, stderr, err := execute(t, input, "batch", "--endpoint", provider.URL, "--delay", "0s", "--mode", "blockquote")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "<blockquote><p>https://twitter.com/a/status/1</p></blockquote>", lines[0])
	assert.Equal(t, "<!-- Failed to generate embed for https://twitter.com/a/status/500 -->", lines[1])
	assert.Equal(t, "<blockquote><p>https://twitter.com/a/status/3</p></blockquote>", lines[2])
	assert.Contains(t, stderr, "3 items, 1 failed")
	assert.EqualValues(t, 3, hits.Load())
}

func TestBatchCommand_ExportTSV(t *testing.T) {
	provider, _ := newProvider(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "urls.txt")
	require.NoError(t, os.WriteFile(in, []byte("https://twitter.com/a/status/1\n"), 0o600))
	out := filepath.Join(dir, "embeds")

	_, stderr, err := execute(t, "", "batch", in, "--endpoint", provider.URL, "--delay", "0s", "--mode", "blockquote", "--export", "tsv", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "written "+out+".tsv")

	data, err := os.ReadFile(out + ".tsv")
	require.NoError(t, err)
	assert.Equal(t, "Tweet URL\tIframe Code\nhttps://twitter.com/a/status/1\t<blockquote><p>https://twitter.com/a/status/1</p></blockquote>", string(data))
}

func TestBatchCommand_EmptyInput(t *testing.T) {
	provider, hits := newProvider(t)

	stdout, stderr, err := execute(t, "\n \n", "batch", "--endpoint", provider.URL)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "no URLs to process")
	assert.EqualValues(t, 0, hits.Load())
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Version:")
}
