package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"fmp-archiver/internal/series"
)

// Export renders one ticker's stored daily history as CSV and/or a PNG
// price chart. Reads only the local store.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Ticker == "" {
		return errors.New("--ticker is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	l, err := a.newLoader()
	if err != nil {
		return err
	}

	var window series.Window
	if opts.From != nil {
		window.From = opts.From.UTC()
	}
	if opts.To != nil {
		window.To = opts.To.UTC()
	}
	if !window.From.IsZero() && !window.To.IsZero() && !window.From.Before(window.To) {
		return errors.New("from must be before to")
	}

	bars, err := l.History(opts.Ticker, window)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		a.Logger.Info().Str("ticker", opts.Ticker).Msg("no bars found for export window")
		return nil
	}

	downsampled := downsampleBars(bars, opts.MaxPoints)
	a.Logger.Info().
		Str("ticker", opts.Ticker).
		Int("total", len(bars)).
		Int("exported", len(downsampled)).
		Msg("exporting bars")

	if opts.CSVPath != "" {
		if err := barTable(downsampled).writeCSV(opts.CSVPath); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeBarsPNG(opts.PNGPath, opts.Ticker, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleBars(bars []series.Bar, max int) []series.Bar {
	if max <= 0 || len(bars) <= max {
		return bars
	}

	result := make([]series.Bar, 0, max)
	step := float64(len(bars)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(bars) {
			idx = len(bars) - 1
		}
		result = append(result, bars[idx])
	}
	return result
}

func writeBarsPNG(path, ticker string, bars []series.Bar) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(bars))
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))

	for i, bar := range bars {
		x[i] = series.FromMillis(bar.Date)
		closes[i] = bar.Close
		volumes[i] = float64(bar.Volume)
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  ticker,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Close",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name: "Volume",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Close",
				XValues: x,
				YValues: closes,
			},
			chart.TimeSeries{
				Name:    "Volume",
				XValues: x,
				YValues: volumes,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
