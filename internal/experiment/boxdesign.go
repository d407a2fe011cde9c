package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/apenaflor/evolab/internal/ga"
	"github.com/apenaflor/evolab/pkg/core"
)

func init() {
	Register(&boxDesign{})
}

// PopulationCSV is the final-population dump written by the box-design
// experiment.
const PopulationCSV = "box_design_population.csv"

const boxBits = 10 // bits per variable

// boxRanges bounds the three decision variables: length, width (10-50 cm)
// and height (5-30 cm).
var boxRanges = []ga.Interval{
	{Lo: 10.0, Hi: 50.0},
	{Lo: 10.0, Hi: 50.0},
	{Lo: 5.0, Hi: 30.0},
}

// boxDesign maximizes the volume of a rectangular box with a steady-state
// GA: fitness-proportional selection of the two best individuals, one-point
// crossover, per-bit mutation, and replacement of the two worst.
type boxDesign struct{}

func (*boxDesign) Name() string        { return "box-design" }
func (*boxDesign) Background() bool    { return false }
func (*boxDesign) DependsOn() []string { return nil }

func (*boxDesign) Description() string {
	return "Steady-state GA maximizing the volume of a rectangular box"
}

func (*boxDesign) Defaults() core.Params {
	return core.Params{
		Generations:  50,
		Population:   100,
		MutationRate: 0.05,
	}
}

// decodeBox converts a 30-bit chromosome into (length, width, height).
func decodeBox(c ga.Chromosome) (float64, float64, float64, error) {
	if len(c) != boxBits*len(boxRanges) {
		return 0, 0, 0, fmt.Errorf("chromosome length %d does not match %d variables of %d bits",
			len(c), len(boxRanges), boxBits)
	}
	var dims [3]float64
	for i, iv := range boxRanges {
		x, err := ga.Decode(c[i*boxBits:(i+1)*boxBits], iv.Lo, iv.Hi)
		if err != nil {
			return 0, 0, 0, err
		}
		dims[i] = x
	}
	return dims[0], dims[1], dims[2], nil
}

func boxVolume(l, w, h float64) float64 {
	return l * w * h
}

func boxFitness(c ga.Chromosome) float64 {
	l, w, h, err := decodeBox(c)
	if err != nil {
		return math.Inf(-1)
	}
	return boxVolume(l, w, h)
}

func (e *boxDesign) Run(ctx context.Context, rc *RunContext) error {
	p := e.Defaults().Merge(rc.Params)
	rng := rc.Rand
	nbits := boxBits * len(boxRanges)

	pop := ga.NewPopulation(rng, p.Population, nbits)

	fmt.Fprintln(rc.Report, "initial population:")
	if err := writePopulationTable(rc, pop); err != nil {
		return err
	}

	for gen := 1; gen <= p.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		scores := pop.Evaluate(boxFitness)
		probs, err := ga.SelectionProbabilities(scores)
		if err != nil {
			return fmt.Errorf("selection at generation %d: %w", gen, err)
		}

		parents, err := ga.TopK(probs, 2)
		if err != nil {
			return fmt.Errorf("parent selection at generation %d: %w", gen, err)
		}

		c1, c2, err := ga.OnePointCrossover(rng, pop[parents[0]], pop[parents[1]])
		if err != nil {
			return fmt.Errorf("crossover at generation %d: %w", gen, err)
		}
		c1 = ga.MutateChromosome(rng, c1, p.MutationRate)
		c2 = ga.MutateChromosome(rng, c2, p.MutationRate)

		worst, err := ga.BottomK(scores, 2)
		if err != nil {
			return fmt.Errorf("replacement at generation %d: %w", gen, err)
		}
		pop[worst[0]] = c1
		pop[worst[1]] = c2
	}

	fmt.Fprintf(rc.Report, "\nfinal population after %d generations:\n", p.Generations)
	if err := writePopulationTable(rc, pop); err != nil {
		return err
	}

	scores := pop.Evaluate(boxFitness)
	best := ga.Best(scores)
	l, w, h, err := decodeBox(pop[best])
	if err != nil {
		return fmt.Errorf("decoding best individual: %w", err)
	}

	fmt.Fprintln(rc.Report, "\nbest individual found:")
	fmt.Fprintf(rc.Report, "  l = %.2f cm, w = %.2f cm, h = %.2f cm\n", l, w, h)
	fmt.Fprintf(rc.Report, "  volume = %.2f cm^3\n", boxVolume(l, w, h))
	fmt.Fprintf(rc.Report, "  chromosome: %v\n", pop[best])

	if err := writePopulationCSV(filepath.Join(rc.WorkDir, PopulationCSV), pop); err != nil {
		return fmt.Errorf("writing population: %w", err)
	}

	rc.Logger.Info("box design finished",
		"length_cm", l, "width_cm", w, "height_cm", h, "volume_cm3", boxVolume(l, w, h))
	return nil
}

// writePopulationTable renders the decoded population with its fitness and
// selection probabilities to the report.
func writePopulationTable(rc *RunContext, pop ga.Population) error {
	scores := pop.Evaluate(boxFitness)
	probs, err := ga.SelectionProbabilities(scores)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(rc.Report)
	t.AppendHeader(table.Row{"#", "L (cm)", "W (cm)", "H (cm)", "Volume (cm³)", "Sel. prob."})
	for i, ind := range pop {
		l, w, h, err := decodeBox(ind)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.2f", l),
			fmt.Sprintf("%.2f", w),
			fmt.Sprintf("%.2f", h),
			fmt.Sprintf("%.2f", scores[i]),
			fmt.Sprintf("%.4f", probs[i]),
		})
	}
	t.Render()
	return nil
}

func writePopulationCSV(path string, pop ga.Population) error {
	scores := pop.Evaluate(boxFitness)
	probs, err := ga.SelectionProbabilities(scores)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "length_cm", "width_cm", "height_cm", "volume_cm3", "selection_probability"}); err != nil {
		return err
	}
	for i, ind := range pop {
		l, wd, h, err := decodeBox(ind)
		if err != nil {
			return err
		}
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(l, 'f', 2, 64),
			strconv.FormatFloat(wd, 'f', 2, 64),
			strconv.FormatFloat(h, 'f', 2, 64),
			strconv.FormatFloat(scores[i], 'f', 2, 64),
			strconv.FormatFloat(probs[i], 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
