// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Plot generation related functionality.

package analysis

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	defaultPlotWidth  = vg.Centimeter * 24
	defaultPlotHeight = vg.Centimeter * 7
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// A custom color palette: color1 as base color and color2 as a darker variant.
var ColorPalette = []color.RGBA{
	// red1
	{R: 230, G: 57, B: 70, A: 255},
	// red2
	{R: 143, G: 35, B: 43, A: 255},
	// green1
	{R: 84, G: 184, B: 50, A: 255},
	// green2
	{R: 50, G: 110, B: 30, A: 255},
	// blue1
	{R: 63, G: 55, B: 201, A: 255},
	// blue2
	{R: 51, G: 45, B: 163, A: 255},
	// purple1
	{R: 86, G: 11, B: 173, A: 255},
	// purple2
	{R: 62, G: 8, B: 125, A: 255},
	// cyan1
	{R: 31, G: 180, B: 206, A: 255},
	// cyan2
	{R: 11, G: 123, B: 143, A: 255},
	// orange1
	{R: 255, G: 174, B: 0, A: 255},
	// orange2
	{R: 173, G: 118, B: 0, A: 255},
}

// FrameSize is stored payload size of a single frame.
type FrameSize struct {
	Index uint64
	Bytes int
}

// kilobytes returns payload sizes in KB.
func kilobytes(sizes []FrameSize) []float64 {
	kb := make([]float64, len(sizes))
	for i, s := range sizes {
		kb[i] = float64(s.Bytes) / 1000
	}
	return kb
}

// CreateFrameSizePlot creates per frame payload size plot, X axis is the
// original frame index.
func CreateFrameSizePlot(sizes []FrameSize) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Frame #"
	p.Y.Label.Text = "KB"

	if len(sizes) == 0 {
		return p, fmt.Errorf("CreateFrameSizePlot(): %w", ErrNoData)
	}

	kb := kilobytes(sizes)
	xys := make(plotter.XYs, len(sizes))
	for i, s := range sizes {
		xys[i].X = float64(s.Index)
		xys[i].Y = kb[i]
	}
	sizeLine, err := plotter.NewLine(xys)
	if err != nil {
		return p, fmt.Errorf("CreateFrameSizePlot() creating new Line: %w", err)
	}
	sizeLine.Color = ColorPalette[1]
	sizeLine.StepStyle = plotter.PostStep
	sizeLine.FillColor = ColorPalette[0]

	// Mean and max payload size as horizontal lines.
	xMin, xMax := xys[0].X, xys[len(xys)-1].X+1
	mean := stat.Mean(kb, nil)
	max := floats.Max(kb)
	meanLine, meanLabel := horizontalLineWithLabel(mean, xMin, xMax, fmt.Sprintf("mean=%.2f", mean))
	maxLine, maxLabel := horizontalLineWithLabel(max, xMin, xMax, fmt.Sprintf("max=%.2f", max))

	p.Y.Min = 0
	p.Y.Max = max * 1.1
	p.Add(sizeLine, meanLine, meanLabel, maxLine, maxLabel, plotter.NewGrid())

	return p, nil
}

// CreateHistogramPlot creates histogram plot for given values.
func CreateHistogramPlot(values []float64, name string) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = name
	p.Y.Label.Text = "N"

	if len(values) == 0 {
		return p, fmt.Errorf("CreateHistogramPlot(): %w", ErrNoData)
	}

	// We are going to mutate values slice, so make a copy to avoid mangling
	// underlying array and creating unexpected sideffect in caller's scope.
	lValues := make([]float64, len(values))
	copy(lValues, values)
	sort.Float64s(lValues)

	// A number of bins to use for histogram.
	var bins int = 50

	var pHist *plotter.Histogram
	if lValues[0] == lValues[len(lValues)-1] {
		// All values equal (raw frames have constant size), a single bin of
		// unit width around the value.
		v := lValues[0]
		pHist = &plotter.Histogram{
			Bins:      []plotter.HistogramBin{{Min: v - 0.5, Max: v + 0.5, Weight: float64(len(lValues))}},
			Width:     1,
			LineStyle: plotter.DefaultLineStyle,
		}
	} else {
		var err error
		pHist, err = plotter.NewHist(plotter.Values(lValues), bins)
		if err != nil {
			return p, fmt.Errorf("CreateHistogramPlot() creating new histogram: %w", err)
		}
	}
	pHist.Color = color.Transparent
	pHist.FillColor = ColorPalette[7]

	p.Add(pHist)
	p.Add(plotter.NewGrid())

	return p, nil
}

// CreateCDFPlot creates Cumulative Distribution Function plot for given values.
func CreateCDFPlot(values []float64, name string) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = name
	p.Y.Label.Text = "Probability"
	p.Y.Min = 0
	p.Y.Max = 1

	if len(values) == 0 {
		return p, fmt.Errorf("CreateCDFPlot(): %w", ErrNoData)
	}

	lValues := make([]float64, len(values))
	copy(lValues, values)
	sort.Float64s(lValues)

	cdfValues := make(plotter.XYs, len(lValues))
	for i, v := range lValues {
		cdfValues[i].X = v
		cdfValues[i].Y = stat.CDF(v, stat.Empirical, lValues, nil)
	}

	cdfLine, err := plotter.NewLine(cdfValues)
	if err != nil {
		return p, fmt.Errorf("CreateCDFPlot() creating new Line: %w", err)
	}
	cdfLine.Color = ColorPalette[2]

	p.Add(cdfLine, plotter.NewGrid())
	p.Add(createQuantileLines(p, lValues, 0.05, 0.5, 0.95)...)

	return p, nil
}

// MultiPlotFrameSize will create payload size multi plot and save it to PNG
// file.
//
// Resulting plot will include per frame payload size, its histogram and CDF
// all in one canvas.
func MultiPlotFrameSize(sizes []FrameSize, title, outFile string) (err error) {
	if len(sizes) == 0 {
		return fmt.Errorf("MultiPlotFrameSize(): %w", ErrNoData)
	}
	kb := kilobytes(sizes)

	// Create a 2D slice to hold subplots. This is the sad state of gonum's API
	// at this point unfortunately.
	const rows, cols = 3, 1
	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, cols)
	}

	if plots[0][0], err = CreateFrameSizePlot(sizes); err != nil {
		return err
	}
	if plots[1][0], err = CreateHistogramPlot(kb, "KB"); err != nil {
		return err
	}
	if plots[2][0], err = CreateCDFPlot(kb, "KB"); err != nil {
		return err
	}

	// Tweak titles and labels to have better layout and make plots less busy.
	plots[0][0].Title.Text = title + "\n\nPayload size per frame"
	plots[1][0].Title.Text = "Payload size histogram"
	plots[1][0].X.Label.Text = ""
	plots[2][0].Title.Text = "Cumulative Distribution Function (CDF)"

	img := vgimg.New(defaultPlotWidth, defaultPlotHeight*rows)
	dc := draw.New(img)

	t := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadY: vg.Points(10),
	}

	canvases := plot.Align(plots, t, dc)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			if plots[j][i] != nil {
				plots[j][i].Draw(canvases[j][i])
			}
		}
	}

	w, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("MultiPlotFrameSize() creating plot file: %w", err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("MultiPlotFrameSize() failed writing png file: %w", err)
	}

	return nil
}

// verticalLine is helper to create a vertical line.
func verticalLine(x, ymin, ymax float64) *plotter.Line {
	line, err := plotter.NewLine(plotter.XYs{
		{X: x, Y: ymin},
		{X: x, Y: ymax},
	})
	// Unlikely to have error here - so just panic in that case.
	if err != nil {
		log.Panic(err)
	}
	return line
}

// horizontalLine is helper to create a horizontal line.
func horizontalLine(y, xmin, xmax float64) *plotter.Line {
	line, err := plotter.NewLine(plotter.XYs{
		{X: xmin, Y: y},
		{X: xmax, Y: y},
	})
	// Unlikely to have error here - so just panic in that case.
	if err != nil {
		log.Panic(err)
	}
	return line
}

// horizontalLineWithLabel wraps horizontalLine and adds label.
func horizontalLineWithLabel(y, xMin, xMax float64, label string) (*plotter.Line, *plotter.Labels) {
	hLine := horizontalLine(y, xMin, xMax)
	hLine.Color = color.RGBA{156, 67, 162, 255}
	hLabel, _ := plotter.NewLabels(plotter.XYLabels{
		XYs: plotter.XYs{
			{X: xMin, Y: y},
		},
		Labels: []string{
			label,
		},
	})
	hLabel.Offset.X = 5
	hLabel.Offset.Y = 5

	return hLine, hLabel
}

// createQuantileLines is helper to create vertical Quantile lines.
func createQuantileLines(p *plot.Plot, values []float64, quantiles ...float64) []plot.Plotter {
	var plotters []plot.Plotter
	colorCount := len(ColorPalette)
	for i, q := range quantiles {
		qVal := stat.Quantile(q, stat.Empirical, values, nil)
		qLine := verticalLine(qVal, p.Y.Min, p.Y.Max)
		qLine.LineStyle.Width = vg.Points(1)
		qLine.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		// Safe index into ColorPalette with wrap-around.
		qLine.Color = ColorPalette[i*5%colorCount]

		labels, _ := plotter.NewLabels(plotter.XYLabels{
			XYs: plotter.XYs{
				{X: qVal, Y: q},
			},
			Labels: []string{
				fmt.Sprintf("q(%.2f)=%.3f", q, qVal),
			},
		})
		labels.Offset.X = 5
		labels.Offset.Y = -5

		plotters = append(plotters, qLine, labels)
	}
	return plotters
}
