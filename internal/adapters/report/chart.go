package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/okian/miya/internal/domain/types"
)

// ChartConfig holds the chart's presentation settings.
type ChartConfig struct {
	Title  string
	Width  string
	Height string
	Theme  string
}

// DefaultChartConfig returns the settings used by the CLI.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:  "Predicted winner probability",
		Width:  "1000px",
		Height: "500px",
		Theme:  "light",
	}
}

// RenderChart writes an HTML bar chart of each successful row's winner
// probability. Failed rows are left out.
func RenderChart(w io.Writer, b types.Batch, cfg ChartConfig) error {
	var labels []string
	var values []opts.BarData
	for _, r := range b.Rows {
		if !r.OK() {
			continue
		}
		labels = append(labels, fmt.Sprintf("%s vs %s", r.Team1, r.Team2))
		values = append(values, opts.BarData{
			Name:  r.Winner,
			Value: r.WinnerProbability * 100,
		})
	}
	if len(values) == 0 {
		return ErrEmptyBatch
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  cfg.Width,
			Height: cfg.Height,
			Theme:  cfg.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    cfg.Title,
			Subtitle: "run " + b.RunID,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Winner %", Min: 50, Max: 100}),
	)
	bar.SetXAxis(labels).
		AddSeries("Winner probability", values).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// RenderChartFile writes the chart to path.
func RenderChartFile(path string, b types.Batch, cfg ChartConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := RenderChart(f, b, cfg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
