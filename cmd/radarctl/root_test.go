package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itnews-radar/internal/handler/http/auth"
	"itnews-radar/internal/handler/http/news"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_Help(t *testing.T) {
	out, err := execute(t, "", "--help")
	require.NoError(t, err)
	for _, sub := range []string{"score", "ingest", "retrieve", "get", "validate", "token"} {
		assert.Contains(t, out, sub)
	}
}

func TestScore_Local(t *testing.T) {
	t.Setenv("EMBEDDER", "hashing")

	out, err := execute(t, "", "score", "Critical CVE-2024-1234 patched in OpenSSL", "--threshold", "0.5")
	require.NoError(t, err)

	var resp news.ScoreResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1.0, resp.LexicalScore)
	assert.Equal(t, 1.0, resp.FinalScore)
	assert.Equal(t, 0.5, resp.Threshold)
	assert.True(t, resp.Admitted)
	assert.NotEmpty(t, resp.MatchedKeywords)
}

func TestScore_Errors(t *testing.T) {
	t.Setenv("EMBEDDER", "hashing")

	_, err := execute(t, "", "score")
	assert.EqualError(t, err, "a title is required")

	_, err = execute(t, "", "score", "x", "--threshold", "1.5")
	assert.Error(t, err)

	_, err = execute(t, "", "score", "x", "--profile", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "build scoring pipeline")
}

func TestIngest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ingest", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(news.IngestResponse{
			Status:  "ACK",
			Message: "processed 1 items: 1 accepted, 0 rejected, 0 invalid, 0 duplicates",
			Summary: news.IngestSummaryDTO{TotalReceived: 1, Accepted: 1},
		})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","source":"s","title":"t","published_at":"2026-10-01T00:00:00Z"}]`), 0o644))

	out, err := execute(t, "", "ingest", path, "--server", srv.URL, "--threshold", "0.25")
	require.NoError(t, err)

	var resp news.IngestResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Summary.Accepted)

	assert.Equal(t, 0.25, got["threshold"])
	items, ok := got["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].(map[string]any)["id"])
}

func TestIngest_StdinObjectKeepsThreshold(t *testing.T) {
	var got news.IngestRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"ACK"}`))
	}))
	defer srv.Close()

	_, err := execute(t, `{"items":[{"id":"a","source":"s","title":"t","published_at":"2026-10-01"}],"threshold":0.7}`,
		"ingest", "-", "--server", srv.URL)
	require.NoError(t, err)
	require.NotNil(t, got.Threshold)
	assert.Equal(t, 0.7, *got.Threshold)
	assert.Equal(t, "2026-10-01", got.Items[0].PublishedAt)
}

func TestIngest_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"threshold must be between 0 and 1","field":"threshold"}`))
	}))
	defer srv.Close()

	_, err := execute(t, `[{"id":"a"}]`, "ingest", "-", "--server", srv.URL)
	assert.EqualError(t, err, "server returned 400: threshold: threshold must be between 0 and 1")
}

func TestDecodeBatch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		items   int
		wantErr string
	}{
		{name: "array", input: `[{"id":"a"},{"id":"b"}]`, items: 2},
		{name: "object", input: ` {"items":[{"id":"a"}]}`, items: 1},
		{name: "empty", input: "  ", wantErr: "input is empty"},
		{name: "scalar", input: `42`, wantErr: "input must be a JSON array or object"},
		{name: "no items", input: `[]`, wantErr: "input contains no items"},
		{name: "malformed", input: `[{"id":}]`, wantErr: "decode items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := decodeBatch([]byte(tt.input))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, req.Items, tt.items)
		})
	}
}

func TestRetrieve_Query(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/retrieve", r.URL.Path)
		query = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(news.RetrieveResponse{
			Items: []news.ItemDTO{{ID: "a", FinalScore: 0.9}},
			Total: 1,
		})
	}))
	defer srv.Close()

	out, err := execute(t, "", "retrieve", "--server", srv.URL, "--threshold", "0.5", "--source", "rss", "--limit", "3")
	require.NoError(t, err)
	assert.Equal(t, "limit=3&source=rss&threshold=0.5", query)

	var resp news.RetrieveResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "a", resp.Items[0].ID)

	_, err = execute(t, "", "retrieve", "--server", srv.URL, "--limit", "3", "--page", "2")
	require.NoError(t, err)
	assert.Equal(t, "limit=3&page=2", query)

	_, err = execute(t, "", "retrieve", "--server", srv.URL)
	require.NoError(t, err)
	assert.Empty(t, query)
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/known" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(news.ItemDTO{ID: "known", Title: "t"})
	}))
	defer srv.Close()

	out, err := execute(t, "", "get", "known", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "known"`)

	_, err = execute(t, "", "get", "missing", "--server", srv.URL)
	assert.EqualError(t, err, `item "missing" not found`)
}

func TestNewAPIClient_RejectsBadScheme(t *testing.T) {
	_, err := newAPIClient("ftp://example.com", "")
	assert.Error(t, err)

	c, err := newAPIClient("http://localhost:8080/", "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.base)
}

func TestValidate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sources.yaml", []byte(`
sources:
  - name: hn
    kind: rss
    url: https://news.ycombinator.com/rss
  - name: off
    kind: mock
    disabled: true
`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("sources:\n  - name: x\n    kind: rss\n"), 0o644))

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	require.NoError(t, runValidate(cmd, fs, "", "/sources.yaml"))
	assert.Contains(t, out.String(), "profile ok:")
	assert.Contains(t, out.String(), "sources ok: 2 configured, 1 enabled")
	assert.Contains(t, out.String(), "  - hn (rss, enabled)")
	assert.Contains(t, out.String(), "  - off (mock, disabled)")

	err := runValidate(cmd, fs, "", "/bad.yaml")
	assert.ErrorContains(t, err, "url is required")
}

func TestToken_AcceptedByAPI(t *testing.T) {
	secret := "radarctl-test-secret-with-at-least-32-bytes"
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("RADAR_TOKEN", "")

	out, err := execute(t, "", "token", "--subject", "ci-bot", "--ttl", "10m")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	subjects := make(chan string, 1)
	guarded := auth.Require(auth.Config{Enabled: true, Secret: []byte(secret)}, auth.RoleIngest)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subjects <- auth.SubjectFromContext(r.Context())
			_, _ = w.Write([]byte(`{"status":"ACK"}`))
		}))
	srv := httptest.NewServer(guarded)
	defer srv.Close()

	_, err = execute(t, `[{"id":"a"}]`, "ingest", "-", "--server", srv.URL)
	assert.EqualError(t, err, "server returned 401: unauthorized")

	_, err = execute(t, `[{"id":"a"}]`, "ingest", "-", "--server", srv.URL, "--token", token)
	require.NoError(t, err)
	assert.Equal(t, "ci-bot", <-subjects)
}

func TestToken_Errors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "", "token")
	assert.EqualError(t, err, "JWT_SECRET is not set")

	t.Setenv("JWT_SECRET", "too-short")
	_, err = execute(t, "", "token")
	assert.ErrorIs(t, err, auth.ErrWeakSecret)

	t.Setenv("JWT_SECRET", "radarctl-test-secret-with-at-least-32-bytes")
	_, err = execute(t, "", "token", "--role", "reader")
	assert.ErrorIs(t, err, auth.ErrUnknownRole)
}
