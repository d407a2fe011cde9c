package experiment

import (
	"bytes"
	"context"
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apenaflor/evolab/internal/testutil"
	"github.com/apenaflor/evolab/pkg/core"
)

func newTestRunContext(t *testing.T, params core.Params) *RunContext {
	t.Helper()
	return &RunContext{
		WorkDir: t.TempDir(),
		Params:  params,
		Rand:    rand.New(rand.NewSource(7)),
		Report:  &bytes.Buffer{},
		Logger:  testutil.NewTestLogger(t),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRegistry_BuiltinSuite(t *testing.T) {
	all := All()
	require.Len(t, all, 4)

	background := 0
	names := make(map[string]bool, len(all))
	for _, e := range all {
		names[e.Name()] = true
		if e.Background() {
			background++
		}
	}
	require.Equal(t, 1, background, "exactly one experiment runs in the background")
	require.True(t, names["rastrigin"])
	require.True(t, names["fitness-plot"])
	require.True(t, names["box-design"])
	require.True(t, names["protein-bar"])

	// Every declared dependency must itself be registered and foreground.
	for _, e := range all {
		for _, dep := range e.DependsOn() {
			d, ok := Get(dep)
			require.True(t, ok, "%s depends on unregistered %s", e.Name(), dep)
			require.False(t, d.Background(), "%s depends on background task %s", e.Name(), dep)
		}
	}
}

func TestRastrigin_Run(t *testing.T) {
	e, ok := Get("rastrigin")
	require.True(t, ok)

	rc := newTestRunContext(t, core.Params{Generations: 20, Population: 20})
	require.NoError(t, e.Run(context.Background(), rc))

	rows := readCSV(t, filepath.Join(rc.WorkDir, HistoryCSV))
	require.Len(t, rows, 21, "header plus one row per generation")
	require.Equal(t, []string{"generation", "best_fitness", "mean_fitness", "best_x", "best_y", "best_f"}, rows[0])
	require.Equal(t, "1", rows[1][0])
	require.Equal(t, "20", rows[20][0])

	report := rc.Report.(*bytes.Buffer).String()
	require.Contains(t, report, "GENETIC ALGORITHM RESULTS")
	require.Contains(t, report, "x* =")
}

func TestRastrigin_Cancelled(t *testing.T) {
	e, ok := Get("rastrigin")
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := newTestRunContext(t, core.Params{Generations: 5, Population: 10})
	err := e.Run(ctx, rc)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBoxDesign_Run(t *testing.T) {
	e, ok := Get("box-design")
	require.True(t, ok)

	rc := newTestRunContext(t, core.Params{Generations: 10, Population: 12})
	require.NoError(t, e.Run(context.Background(), rc))

	rows := readCSV(t, filepath.Join(rc.WorkDir, PopulationCSV))
	require.Len(t, rows, 13, "header plus one row per individual")

	report := rc.Report.(*bytes.Buffer).String()
	require.Contains(t, report, "initial population")
	require.Contains(t, report, "final population after 10 generations")
	require.Contains(t, report, "best individual found")
	require.Contains(t, report, "Volume")
}

func TestBoxDesign_VolumeWithinBounds(t *testing.T) {
	e, ok := Get("box-design")
	require.True(t, ok)

	rc := newTestRunContext(t, core.Params{Generations: 30, Population: 40})
	require.NoError(t, e.Run(context.Background(), rc))

	rows := readCSV(t, filepath.Join(rc.WorkDir, PopulationCSV))
	for _, row := range rows[1:] {
		vol := parseF(t, row[4])
		require.GreaterOrEqual(t, vol, 10.0*10.0*5.0)
		require.LessOrEqual(t, vol, 50.0*50.0*30.0)
	}
}

func TestProteinBar_Run(t *testing.T) {
	e, ok := Get("protein-bar")
	require.True(t, ok)
	require.True(t, e.Background())

	rc := newTestRunContext(t, core.Params{Generations: 8, Population: 50})
	require.NoError(t, e.Run(context.Background(), rc))

	rows := readCSV(t, filepath.Join(rc.WorkDir, MutationsCSV))
	require.Len(t, rows, 9)
	require.Equal(t, []string{"generation", "mutated_individuals", "mean_abs_shift_g"}, rows[0])

	// With a 0.1 per-gene rate over 50 four-gene individuals, some
	// generation must see mutations.
	total := 0.0
	for _, row := range rows[1:] {
		total += parseF(t, row[1])
	}
	require.Positive(t, total)
}

func TestFitnessPlot_Run(t *testing.T) {
	rastriginExp, ok := Get("rastrigin")
	require.True(t, ok)
	plotExp, ok := Get("fitness-plot")
	require.True(t, ok)
	require.Equal(t, []string{"rastrigin"}, plotExp.DependsOn())

	rc := newTestRunContext(t, core.Params{Generations: 10, Population: 10})
	require.NoError(t, rastriginExp.Run(context.Background(), rc))
	require.NoError(t, plotExp.Run(context.Background(), rc))

	info, err := os.Stat(filepath.Join(rc.WorkDir, FitnessPNG))
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestFitnessPlot_MissingHistory(t *testing.T) {
	e, ok := Get("fitness-plot")
	require.True(t, ok)

	rc := newTestRunContext(t, core.Params{})
	err := e.Run(context.Background(), rc)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), HistoryCSV))
}

func parseF(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}
