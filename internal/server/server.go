// Package server is a small local viewer over saved analysis runs: each run
// is a timestamped markdown report plus a chart image in the chart directory.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New()

// Run is one saved analysis run, identified by its timestamp name.
type Run struct {
	ID        string
	Display   string
	HasReport bool
	HasChart  bool
}

// Server is the HTTP server for browsing saved runs.
type Server struct {
	chartDir string
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// New creates a new Server over the given chart directory.
func New(chartDir string) (*Server, error) {
	base, err := template.New("base.html").ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page template is parsed into its own clone of the base so every
	// page gets its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "run.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{chartDir: chartDir, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.Handle("/charts/", http.StripPrefix("/charts/", http.FileServer(http.Dir(s.chartDir))))
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/run/", s.handleRun)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	runs, err := s.listRuns()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Runs": runs,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/run/")
	if id == "" || !validRunID(id) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	var reportHTML template.HTML
	data, err := os.ReadFile(filepath.Join(s.chartDir, id+".md"))
	if err == nil {
		reportHTML = renderMarkdown(string(data))
	}

	hasChart := false
	if _, err := os.Stat(filepath.Join(s.chartDir, id+".png")); err == nil {
		hasChart = true
	}

	s.render(w, "run.html", map[string]any{
		"ID":       id,
		"Display":  displayName(id),
		"Report":   reportHTML,
		"HasChart": hasChart,
	})
}

// listRuns scans the chart directory for saved runs, newest first.
func (s *Server) listRuns() ([]Run, error) {
	entries, err := os.ReadDir(s.chartDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	byID := make(map[string]*Run)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		id := strings.TrimSuffix(name, ext)
		if !validRunID(id) {
			continue
		}
		run, ok := byID[id]
		if !ok {
			run = &Run{ID: id, Display: displayName(id)}
			byID[id] = run
		}
		switch ext {
		case ".md":
			run.HasReport = true
		case ".png":
			run.HasChart = true
		}
	}

	runs := make([]Run, 0, len(byID))
	for _, r := range byID {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	return runs, nil
}

// validRunID accepts only timestamp-shaped names, which also keeps request
// paths from escaping the chart directory.
func validRunID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		if (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

func displayName(id string) string {
	t, err := time.Parse("20060102_150405", id)
	if err != nil {
		return id
	}
	return t.Format("Jan 2, 2006 15:04:05")
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(chartDir string, port int) error {
	srv, err := New(chartDir)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
