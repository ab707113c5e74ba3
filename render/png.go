package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/spektr-org/seizures/report"
)

const (
	pngWidth  = 12 * vg.Inch
	pngHeight = 6 * vg.Inch
)

// WritePNG draws one chart. Bars are grouped per category (stacked for
// stacked_bar), lines share the category axis, and area charts stack filled
// lines. Heatmaps have no PNG form and are drawn as grouped bars.
func WritePNG(w io.Writer, c Chart) error {
	if !c.Plottable() {
		return fmt.Errorf("png: section %q has nothing to plot", c.Title)
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XAxis
	p.Y.Label.Text = c.YAxis
	p.Legend.Top = true
	p.NominalX(c.Categories...)
	if len(c.Categories) > rotateAfter {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = text.XRight
		p.X.Tick.Label.YAlign = text.YCenter
	}

	var err error
	switch c.Kind {
	case report.ChartLine:
		err = addLines(p, c, false)
	case report.ChartArea:
		err = addLines(p, c, true)
	default:
		err = addBars(p, c, c.Kind == report.ChartStackedBar)
	}
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}

	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("png: %w", err)
	}
	return nil
}

func addBars(p *plot.Plot, c Chart, stacked bool) error {
	groupWidth := vg.Points(40)
	width := groupWidth
	if !stacked && len(c.Series) > 1 {
		width = groupWidth / vg.Length(len(c.Series))
	}

	var below *plotter.BarChart
	for i, s := range c.Series {
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), width)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		bars.Color = hexColor(s.Color)
		bars.LineStyle.Width = vg.Length(0)
		if stacked {
			if below != nil {
				bars.StackOn(below)
			}
			below = bars
		} else {
			bars.Offset = width * (vg.Length(i) - vg.Length(len(c.Series)-1)/2)
		}
		p.Add(bars)
		if len(c.Series) > 1 {
			p.Legend.Add(s.Name, bars)
		}
	}
	return nil
}

// addLines plots one line per series. With stack set each line sits on the
// running total of the previous ones and fills down to it, drawn top first so
// lower bands stay visible.
func addLines(p *plot.Plot, c Chart, stack bool) error {
	running := make([]float64, len(c.Categories))
	lines := make([]*plotter.Line, len(c.Series))
	for i, s := range c.Series {
		xys := make(plotter.XYs, len(s.Values))
		for j, v := range s.Values {
			if stack {
				running[j] += v
				v = running[j]
			}
			xys[j] = plotter.XY{X: float64(j), Y: v}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		line.Color = hexColor(s.Color)
		line.Width = vg.Points(1.5)
		if stack {
			line.FillColor = hexColor(s.Color)
		}
		lines[i] = line
	}

	for i := len(lines) - 1; i >= 0; i-- {
		p.Add(lines[i])
	}
	for i, line := range lines {
		if len(lines) > 1 {
			p.Legend.Add(c.Series[i].Name, line)
		}
	}
	return nil
}

// hexColor parses "#RRGGBB"; anything else is black.
func hexColor(s string) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.Black
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
