// Package chart renders the per-run PNG: a bar chart of case counts by year
// beside overlaid per-year age histograms.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/NDua7/Technical-Assignment/internal/aggregate"
)

// Render writes the chart image for a finished run to path.
func Render(path string, s *aggregate.Stats) error {
	cases, err := casesPlot(s)
	if err != nil {
		return fmt.Errorf("building cases chart: %w", err)
	}
	ages, err := agesPlot(s)
	if err != nil {
		return fmt.Errorf("building age chart: %w", err)
	}

	img := vgimg.NewWith(vgimg.UseWH(14*vg.Inch, 6*vg.Inch), vgimg.UseDPI(96))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{{cases, ages}}, tiles, dc)
	cases.Draw(canvases[0][0])
	ages.Draw(canvases[0][1])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	return nil
}

// casesPlot builds the cases-by-year bar chart over the resolved year range,
// including zero-count years so gaps stay visible.
func casesPlot(s *aggregate.Stats) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Total cases by Year"
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Cases"

	var labels []string
	var counts plotter.Values
	for y := s.Query.StartYear; y <= s.EndYear; y++ {
		labels = append(labels, strconv.Itoa(y))
		counts = append(counts, float64(s.ByYear[y]))
	}

	bars, err := plotter.NewBarChart(counts, vg.Points(14))
	if err != nil {
		return nil, err
	}
	bars.LineStyle.Width = 0
	bars.Color = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = -0.785 // ~45 degrees
	p.X.Tick.Label.XAlign = draw.XLeft
	return p, nil
}

// agesPlot builds overlaid translucent histograms of consumer ages, one per
// year with samples, or a placeholder when no age data exists.
func agesPlot(s *aggregate.Stats) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Distribution of consumer ages (by year)"
	p.X.Label.Text = "Age (years)"
	p.Y.Label.Text = "Count"

	if len(s.AgesAll) == 0 {
		lbl, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: 0.5, Y: 0.5}},
			Labels: []string{"No age data available"},
		})
		if err != nil {
			return nil, err
		}
		p.Add(lbl)
		p.HideAxes()
		return p, nil
	}

	var years []int
	for y, ages := range s.AgesByYear {
		if len(ages) > 0 {
			years = append(years, y)
		}
	}
	sort.Ints(years)

	for i, y := range years {
		fill := translucent(plotutil.Color(i))
		h := &plotter.Histogram{
			Bins:      ageBins(s.AgesByYear[y]),
			Width:     121,
			FillColor: fill,
			LineStyle: plotter.DefaultLineStyle,
		}
		h.LineStyle.Width = 0
		p.Add(h)
		if len(years) <= 12 {
			p.Legend.Add(strconv.Itoa(y), swatch{fill})
		}
	}
	p.Legend.Top = true
	p.X.Min, p.X.Max = 0, 120
	return p, nil
}

// ageBins counts samples into unit-width bins spanning -0.5..120.5. Every
// year's histogram shares these edges, so the overlays stay comparable no
// matter what range each year's samples cover.
func ageBins(ages []float64) []plotter.HistogramBin {
	bins := make([]plotter.HistogramBin, 121)
	for i := range bins {
		bins[i].Min = float64(i) - 0.5
		bins[i].Max = float64(i) + 0.5
	}
	for _, a := range ages {
		i := int(math.Floor(a + 0.5))
		if i < 0 {
			i = 0
		} else if i > 120 {
			i = 120
		}
		bins[i].Weight++
	}
	return bins
}

func translucent(c color.Color) color.NRGBA {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 46}
}

// swatch is a legend thumbnail drawn as a filled rectangle.
type swatch struct {
	color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.Color, pts)
}
