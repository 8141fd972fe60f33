package diagnostics

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/himanishpuri/ImpactSync/pkg/models"
	"github.com/himanishpuri/ImpactSync/pkg/utils"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	trackColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	collisionColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// PlotTrajectory draws the vertical position per frame with collisions
// marked, and saves it to path. The format follows the file extension.
// Y is drawn inverted so the plot matches image space, where a bounce's
// lowest point is the largest y.
func PlotTrajectory(traj models.Trajectory, events []models.CollisionEvent, path string) error {
	if len(traj) == 0 {
		return errors.New("empty trajectory")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trajectory - %d collisions", len(events))
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Y (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	byFrame := make(map[int]float64, len(traj))
	pts := make(plotter.XYs, 0, len(traj))
	for _, s := range traj {
		pts = append(pts, plotter.XY{X: float64(s.Frame), Y: s.Y})
		byFrame[s.Frame] = s.Y
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("trajectory line: %w", err)
	}
	line.Color = trackColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("y", line)

	hits := make(plotter.XYs, 0, len(events))
	for _, e := range events {
		if y, ok := byFrame[e.Frame]; ok {
			hits = append(hits, plotter.XY{X: float64(e.Frame), Y: y})
		}
	}
	if len(hits) > 0 {
		sc, err := plotter.NewScatter(hits)
		if err != nil {
			return fmt.Errorf("collision markers: %w", err)
		}
		sc.GlyphStyle.Color = collisionColor
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("collision", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
