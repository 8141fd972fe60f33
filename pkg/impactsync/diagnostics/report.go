package diagnostics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/himanishpuri/ImpactSync/pkg/models"
)

// RenderReport writes an interactive HTML page with the trajectory (when
// present) and the gain and start time of every placed instance.
func RenderReport(w io.Writer, traj models.Trajectory, events []models.CollisionEvent, instances []models.CompositeInstance) error {
	page := components.NewPage()
	page.PageTitle = "ImpactSync report"

	if len(traj) > 0 {
		page.AddCharts(trajectoryChart(traj, events))
	}
	page.AddCharts(gainChart(instances))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

func trajectoryChart(traj models.Trajectory, events []models.CollisionEvent) *charts.Line {
	hit := make(map[int]bool, len(events))
	for _, e := range events {
		hit[e.Frame] = true
	}

	frames := make([]string, len(traj))
	ys := make([]opts.LineData, len(traj))
	marks := make([]opts.LineData, len(traj))
	for i, s := range traj {
		frames[i] = strconv.Itoa(s.Frame)
		ys[i] = opts.LineData{Value: s.Y}
		// "-" leaves a gap in echarts
		marks[i] = opts.LineData{Value: "-"}
		if hit[s.Frame] {
			marks[i] = opts.LineData{Value: s.Y, Symbol: "circle", SymbolSize: 10}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Trajectory", Subtitle: fmt.Sprintf("frames=%d collisions=%d", len(traj), len(events))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (px)", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(frames).
		AddSeries("y", ys).
		AddSeries("collision", marks, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	return line
}

func gainChart(instances []models.CompositeInstance) *charts.Bar {
	ids := make([]string, len(instances))
	gains := make([]opts.BarData, len(instances))
	starts := make([]opts.BarData, len(instances))
	for i, inst := range instances {
		ids[i] = "#" + strconv.Itoa(inst.EventID)
		gains[i] = opts.BarData{Value: inst.Gain}
		starts[i] = opts.BarData{Value: inst.StartTime}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Placed instances", Subtitle: fmt.Sprintf("count=%d", len(instances))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(ids).
		AddSeries("gain", gains).
		AddSeries("start (s)", starts)
	return bar
}
