package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apenaflor/evolab/internal/ga"
	"github.com/apenaflor/evolab/pkg/core"
)

func init() {
	Register(&proteinBar{})
}

// MutationsCSV is the per-generation mutation summary written by the
// protein-bar experiment.
const MutationsCSV = "protein_bar_mutations.csv"

// barBounds limits each ingredient of the bar, in grams: whey protein,
// oats, almond butter, sugar.
var barBounds = []ga.Interval{
	{Lo: 10.0, Hi: 50.0},
	{Lo: 20.0, Hi: 100.0},
	{Lo: 5.0, Hi: 30.0},
	{Lo: 0.0, Hi: 20.0},
}

var barIngredients = []string{"whey protein", "oats", "almond butter", "sugar"}

// changeTolerance separates genuine mutations from floating-point noise.
const changeTolerance = 1e-9

// proteinBar is a mutation study rather than a full GA: it generates a
// real-coded population of ingredient mixes and applies gaussian mutation
// over many generations, tracking how many individuals actually change.
// It runs as the suite's background task.
type proteinBar struct{}

func (*proteinBar) Name() string        { return "protein-bar" }
func (*proteinBar) Background() bool    { return true }
func (*proteinBar) DependsOn() []string { return nil }

func (*proteinBar) Description() string {
	return "Gaussian mutation study on a real-coded protein-bar formulation"
}

func (*proteinBar) Defaults() core.Params {
	return core.Params{
		Generations:  50,
		Population:   1000,
		MutationRate: 0.1,
		Sigma:        1.0,
	}
}

type mutationStats struct {
	generation   int
	mutated      int
	meanAbsShift float64
}

func (e *proteinBar) Run(ctx context.Context, rc *RunContext) error {
	p := e.Defaults().Merge(rc.Params)
	rng := rc.Rand

	pop := ga.RandomRealPopulation(rng, p.Population, barBounds)

	stats := make([]mutationStats, 0, p.Generations)

	for gen := 1; gen <= p.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := make([]ga.RealVector, len(pop))
		mutated := 0
		var totalShift float64
		var shiftCount int

		for i, ind := range pop {
			m := ga.GaussianMutate(rng, ind, barBounds, p.MutationRate, p.Sigma)
			changed := false
			for g := range ind {
				if d := math.Abs(ind[g] - m[g]); d > changeTolerance {
					changed = true
					totalShift += d
					shiftCount++
				}
			}
			if changed {
				mutated++
			}
			next[i] = m
		}
		pop = next

		meanShift := 0.0
		if shiftCount > 0 {
			meanShift = totalShift / float64(shiftCount)
		}
		stats = append(stats, mutationStats{gen, mutated, meanShift})

		rc.Logger.Debug("protein-bar generation",
			"generation", gen, "mutated", mutated, "mean_abs_shift_g", meanShift)
	}

	// Sample individual for the log, matching the ingredient order.
	sample := pop[0]
	attrs := make([]any, 0, 2*len(sample))
	for g, grams := range sample {
		attrs = append(attrs, barIngredients[g], fmt.Sprintf("%.3f g", grams))
	}
	rc.Logger.Info("protein-bar mutation study finished", attrs...)

	if err := writeMutationStats(filepath.Join(rc.WorkDir, MutationsCSV), stats); err != nil {
		return fmt.Errorf("writing mutation stats: %w", err)
	}
	return nil
}

func writeMutationStats(path string, stats []mutationStats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"generation", "mutated_individuals", "mean_abs_shift_g"}); err != nil {
		return err
	}
	for _, s := range stats {
		row := []string{
			strconv.Itoa(s.generation),
			strconv.Itoa(s.mutated),
			strconv.FormatFloat(s.meanAbsShift, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
