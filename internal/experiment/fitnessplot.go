package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/apenaflor/evolab/pkg/core"
)

func init() {
	Register(&fitnessPlot{})
}

// FitnessPNG is the chart produced by the fitness-plot experiment.
const FitnessPNG = "rastrigin_fitness.png"

// fitnessPlot renders the best and mean fitness curves of the rastrigin run
// from its history CSV.
type fitnessPlot struct{}

func (*fitnessPlot) Name() string          { return "fitness-plot" }
func (*fitnessPlot) Background() bool      { return false }
func (*fitnessPlot) DependsOn() []string   { return []string{"rastrigin"} }
func (*fitnessPlot) Defaults() core.Params { return core.Params{} }

func (*fitnessPlot) Description() string {
	return "Plots best and mean fitness per generation from the rastrigin history"
}

func (e *fitnessPlot) Run(ctx context.Context, rc *RunContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	historyPath := filepath.Join(rc.WorkDir, HistoryCSV)
	best, mean, err := readFitnessHistory(historyPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", HistoryCSV, err)
	}

	p := plot.New()
	p.Title.Text = "Fitness evolution of the genetic algorithm"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"
	p.Add(plotter.NewGrid())

	bestLine, err := plotter.NewLine(best)
	if err != nil {
		return fmt.Errorf("building best-fitness line: %w", err)
	}
	bestLine.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return fmt.Errorf("building mean-fitness line: %w", err)
	}
	meanLine.Color = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}

	p.Add(bestLine, meanLine)
	p.Legend.Add("best fitness", bestLine)
	p.Legend.Add("mean fitness", meanLine)
	p.Legend.Top = true

	outPath := filepath.Join(rc.WorkDir, FitnessPNG)
	if err := p.Save(8*vg.Inch, 5*vg.Inch, outPath); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}

	fmt.Fprintf(rc.Report, "plotted %d generations to %s\n", len(best), FitnessPNG)
	rc.Logger.Info("fitness plot written", "path", outPath, "points", len(best))
	return nil
}

// readFitnessHistory loads the (generation, best) and (generation, mean)
// series from the rastrigin history CSV.
func readFitnessHistory(path string) (best, mean plotter.XYs, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("history has no data rows")
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, required := range []string{"generation", "best_fitness", "mean_fitness"} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("history is missing column %q", required)
		}
	}

	for _, row := range rows[1:] {
		gen, err := strconv.ParseFloat(row[col["generation"]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("bad generation value %q: %w", row[col["generation"]], err)
		}
		b, err := strconv.ParseFloat(row[col["best_fitness"]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("bad best_fitness value %q: %w", row[col["best_fitness"]], err)
		}
		m, err := strconv.ParseFloat(row[col["mean_fitness"]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("bad mean_fitness value %q: %w", row[col["mean_fitness"]], err)
		}
		best = append(best, plotter.XY{X: gen, Y: b})
		mean = append(mean, plotter.XY{X: gen, Y: m})
	}
	return best, mean, nil
}
