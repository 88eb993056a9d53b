// Package report renders the final statistics of an aggregation run, both as
// the plain-text listing printed to the terminal and as a markdown document
// saved next to the chart for the local viewer.
package report

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/NDua7/Technical-Assignment/internal/aggregate"
)

// TopN is how many rows each frequency table shows.
const TopN = 25

// WriteText writes the plain-text report: total, the three top-25 tables as
// count-tab-label lines, and the three average-age figures.
func WriteText(w io.Writer, s *aggregate.Stats) {
	fmt.Fprintf(w, "Total Records matching the criteria: %d\n", s.Total)

	writeTable(w, "Top 25 Outcomes", s.Outcomes)
	writeTable(w, "Top 25 Reactions", s.Reactions)
	writeTable(w, "Top 25 Suspect Products", s.Products)

	fmt.Fprintf(w, "\nAverage Consumer Age (years):\n")
	fmt.Fprintf(w, "Total Avg:\t%s\n", avg(s.AgesAll))
	fmt.Fprintf(w, "Female Avg:\t%s\n", avg(s.AgesFemale))
	fmt.Fprintf(w, "Male Avg:\t%s\n", avg(s.AgesMale))
}

func writeTable(w io.Writer, title string, c *aggregate.Counter) {
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, e := range c.Top(TopN) {
		fmt.Fprintf(w, "%d\t%s\n", e.Count, e.Label)
	}
}

// avg formats the mean of the samples, or "N/A" when there are none.
func avg(samples []float64) string {
	if len(samples) == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", stat.Mean(samples, nil))
}

// Markdown renders the same content as a markdown document for the viewer.
func Markdown(s *aggregate.Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Adverse Event Report %d\u2013%d\n\n", s.Query.StartYear, s.EndYear)
	if s.Query.Product != "" {
		fmt.Fprintf(&b, "Product filter: **%s**\n\n", s.Query.Product)
	}
	fmt.Fprintf(&b, "Total records matching the criteria: **%d**\n", s.Total)

	mdTable(&b, "Top 25 Outcomes", s.Outcomes)
	mdTable(&b, "Top 25 Reactions", s.Reactions)
	mdTable(&b, "Top 25 Suspect Products", s.Products)

	b.WriteString("\n## Average Consumer Age (years)\n\n")
	fmt.Fprintf(&b, "| Group | Average |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total | %s |\n", avg(s.AgesAll))
	fmt.Fprintf(&b, "| Female | %s |\n", avg(s.AgesFemale))
	fmt.Fprintf(&b, "| Male | %s |\n", avg(s.AgesMale))

	return b.String()
}

func mdTable(b *strings.Builder, title string, c *aggregate.Counter) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
	entries := c.Top(TopN)
	if len(entries) == 0 {
		b.WriteString("_No data._\n")
		return
	}
	b.WriteString("| Count | Label |\n|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(b, "| %d | %s |\n", e.Count, escapePipes(e.Label))
	}
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
