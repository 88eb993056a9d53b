package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, chartDir string) *httptest.Server {
	t.Helper()
	srv, err := New(chartDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestIndexListsRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "20240101_120000.md", "# First")
	writeFile(t, dir, "20240101_120000.png", "png")
	writeFile(t, dir, "20240202_080000.md", "# Second")
	writeFile(t, dir, "notes.txt", "ignored")

	ts := newTestServer(t, dir)
	status, body := get(t, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}

	if !strings.Contains(body, "Jan 1, 2024 12:00:00") {
		t.Errorf("first run missing from index:\n%s", body)
	}
	if !strings.Contains(body, "Feb 2, 2024 08:00:00") {
		t.Errorf("second run missing from index:\n%s", body)
	}
	if strings.Contains(body, "notes") {
		t.Errorf("non-run file listed:\n%s", body)
	}

	// Newest first.
	if strings.Index(body, "20240202_080000") > strings.Index(body, "20240101_120000") {
		t.Errorf("runs not sorted newest first:\n%s", body)
	}
}

func TestIndexEmptyChartDir(t *testing.T) {
	ts := newTestServer(t, filepath.Join(t.TempDir(), "missing"))
	status, _ := get(t, ts.URL+"/")
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200 for empty run list", status)
	}
}

func TestRunPageRendersMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "20240101_120000.md", "# Report Title\n\nTotal records: **42**")
	writeFile(t, dir, "20240101_120000.png", "png")

	ts := newTestServer(t, dir)
	status, body := get(t, ts.URL+"/run/20240101_120000")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "Report Title") {
		t.Errorf("markdown heading not rendered:\n%s", body)
	}
	if !strings.Contains(body, "<strong>42</strong>") {
		t.Errorf("markdown emphasis not rendered:\n%s", body)
	}
	if !strings.Contains(body, "/charts/20240101_120000.png") {
		t.Errorf("chart image missing:\n%s", body)
	}
}

func TestRunPageInvalidIDRedirects(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	for _, path := range []string{"/run/", "/run/abc", "/run/20240101.md"} {
		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Errorf("GET %s: status = %d, want 302", path, resp.StatusCode)
		}
	}
}

func TestChartsServed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "20240101_120000.png", "fake png bytes")

	ts := newTestServer(t, dir)
	status, body := get(t, ts.URL+"/charts/20240101_120000.png")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body != "fake png bytes" {
		t.Errorf("unexpected chart body %q", body)
	}
}

func TestValidRunID(t *testing.T) {
	valid := []string{"20240101_120000", "123", "1_2_3"}
	invalid := []string{"", "../etc", "20240101-120000", "run.md", "a20240101"}

	for _, id := range valid {
		if !validRunID(id) {
			t.Errorf("validRunID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if validRunID(id) {
			t.Errorf("validRunID(%q) = true, want false", id)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("20240101_120000"); got != "Jan 1, 2024 12:00:00" {
		t.Errorf("displayName = %q", got)
	}
	// Non-timestamp IDs fall back to the raw ID.
	if got := displayName("123"); got != "123" {
		t.Errorf("displayName fallback = %q", got)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
