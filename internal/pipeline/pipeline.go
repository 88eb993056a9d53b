// Package pipeline orchestrates the two-step run: download the corpus, then
// aggregate it into a report and chart.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/NDua7/Technical-Assignment/internal/aggregate"
	"github.com/NDua7/Technical-Assignment/internal/chart"
	"github.com/NDua7/Technical-Assignment/internal/config"
	"github.com/NDua7/Technical-Assignment/internal/database"
	"github.com/NDua7/Technical-Assignment/internal/fetch"
	"github.com/NDua7/Technical-Assignment/internal/report"
)

// LedgerFile is the fetch ledger's filename inside the data directory.
const LedgerFile = "fetch_ledger.db"

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// AnalyzeOutput is the saved artifacts of one analysis pass.
type AnalyzeOutput struct {
	Stats      *aggregate.Stats
	ChartPath  string
	ReportPath string
}

// Pipeline runs fetch and analyze against one configuration.
type Pipeline struct {
	cfg *config.Config
}

// New creates a new pipeline.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Run executes fetch then analyze. A fetch failure is recorded but does not
// stop the analysis: whatever data already exists still gets a report.
func (p *Pipeline) Run(ctx context.Context, q aggregate.Query, force bool) *Result {
	r := &Result{}

	log.Println("Step 1/2: Fetching corpus...")
	r.Steps = append(r.Steps, p.runFetch(ctx, force))

	log.Println("Step 2/2: Analyzing...")
	out, err := p.Analyze(q)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Analyze", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Analyze",
		Summary: fmt.Sprintf("%d records matched; chart saved to %s",
			out.Stats.Total, out.ChartPath),
	})
	return r
}

func (p *Pipeline) runFetch(ctx context.Context, force bool) StepResult {
	result, err := p.Fetch(ctx, force)
	if err != nil {
		return StepResult{Name: "Fetch", Err: err}
	}
	return StepResult{
		Name: "Fetch",
		Summary: fmt.Sprintf("%d buckets fetched, %d already complete, %d failed (%d pages, %d records)",
			result.BucketsFetched, result.BucketsSkipped, result.Errors, result.Pages, result.Records),
	}
}

// Fetch downloads the configured date range into the data directory.
func (p *Pipeline) Fetch(ctx context.Context, force bool) (*fetch.Result, error) {
	dataDir := p.cfg.GetDataDir()
	db, err := database.Open(filepath.Join(dataDir, LedgerFile))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return fetch.New(p.cfg.Fetch, db, dataDir).Run(ctx, force)
}

// Analyze scans the data directory with the given query and saves the chart
// and markdown report under a shared timestamp name.
func (p *Pipeline) Analyze(q aggregate.Query) (*AnalyzeOutput, error) {
	stats, err := aggregate.New(q).ScanDir(p.cfg.GetDataDir())
	if err != nil {
		return nil, err
	}

	chartDir := p.cfg.GetChartDir()
	if err := os.MkdirAll(chartDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chart directory: %w", err)
	}

	ts := time.Now().Format("20060102_150405")
	out := &AnalyzeOutput{
		Stats:      stats,
		ChartPath:  filepath.Join(chartDir, ts+".png"),
		ReportPath: filepath.Join(chartDir, ts+".md"),
	}

	if err := chart.Render(out.ChartPath, stats); err != nil {
		return nil, err
	}
	if err := os.WriteFile(out.ReportPath, []byte(report.Markdown(stats)), 0o644); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	return out, nil
}
