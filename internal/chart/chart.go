// Package chart renders dashboard charts as PNG images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

const (
	DefaultWidth  = 900
	DefaultHeight = 420
)

// Options sizes and titles a chart. Zero values use the defaults.
type Options struct {
	Width  int
	Height int
	Title  string
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

var barColor = drawing.ColorFromHex("4c78a8")

func barStyle() chart.Style {
	return chart.Style{FillColor: barColor, StrokeColor: barColor, StrokeWidth: 1}
}

// CategoryBars plots mean score per category, lowest first, on a fixed [0,100] axis.
func CategoryBars(w io.Writer, summaries []nps.CategorySummary, opt Options) error {
	if len(summaries) == 0 {
		return ErrNoData
	}
	ranked := nps.RankByMean(summaries, false)
	bars := make([]chart.Value, len(ranked))
	for i, s := range ranked {
		bars[i] = chart.Value{Value: s.MeanScore, Label: s.Category, Style: barStyle()}
	}
	title := opt.Title
	if title == "" {
		title = "Mean NPS per category"
	}
	ticks := []chart.Tick{{Value: 0, Label: "0"}, {Value: 25, Label: "25"}, {Value: 50, Label: "50"}, {Value: 75, Label: "75"}, {Value: 100, Label: "100"}}
	return render(w, opt, title, bars, &chart.ContinuousRange{Min: nps.MinScore, Max: nps.MaxScore}, ticks)
}

// ScoreHistogram plots the bin counts, one bar per bin labelled by its range.
func ScoreHistogram(w io.Writer, bins []nps.Bin, opt Options) error {
	total, top := 0, 0
	for _, b := range bins {
		total += b.Count
		if b.Count > top {
			top = b.Count
		}
	}
	if total == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, len(bins))
	for i, b := range bins {
		bars[i] = chart.Value{Value: float64(b.Count), Label: b.Label(), Style: barStyle()}
	}
	title := opt.Title
	if title == "" {
		title = "NPS score distribution"
	}
	yMax := math.Ceil(float64(top) * 1.1)
	if yMax <= float64(top) {
		yMax = float64(top) + 1
	}
	return render(w, opt, title, bars, &chart.ContinuousRange{Min: 0, Max: yMax}, nil)
}

func render(w io.Writer, opt Options, title string, bars []chart.Value, yRange *chart.ContinuousRange, ticks []chart.Tick) error {
	width, height := opt.size()
	plot := width - 80
	barWidth := plot / (len(bars) * 2)
	if barWidth < 4 {
		barWidth = 4
	}
	spacing := barWidth
	if spacing > 40 {
		spacing = 40
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.Style{FontSize: 8},
		YAxis:      chart.YAxis{Range: yRange, Ticks: ticks},
		Bars:       bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
