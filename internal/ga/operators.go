package ga

import (
	"fmt"
	"math/rand"
	"sort"
)

// TournamentSelect builds a new population of the same size by repeatedly
// sampling k individuals with replacement and keeping the fittest of each
// sample.
func TournamentSelect(rng *rand.Rand, pop Population, scores []float64, k int) Population {
	n := len(pop)
	next := make(Population, 0, n)
	for len(next) < n {
		winner := rng.Intn(n)
		for i := 1; i < k; i++ {
			c := rng.Intn(n)
			if scores[c] > scores[winner] {
				winner = c
			}
		}
		next = append(next, pop[winner].Clone())
	}
	return next
}

// SelectionProbabilities converts raw fitness scores into
// fitness-proportional selection probabilities. When the total fitness is
// not positive the distribution degenerates, so a uniform one is returned
// instead.
func SelectionProbabilities(scores []float64) ([]float64, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("no fitness scores")
	}

	var total float64
	for _, s := range scores {
		total += s
	}

	probs := make([]float64, len(scores))
	if total <= 0 {
		uniform := 1.0 / float64(len(scores))
		for i := range probs {
			probs[i] = uniform
		}
		return probs, nil
	}
	for i, s := range scores {
		probs[i] = s / total
	}
	return probs, nil
}

// TopK returns the indices of the k largest values, ordered from largest to
// smallest.
func TopK(values []float64, k int) ([]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if k > len(values) {
		return nil, fmt.Errorf("k (%d) exceeds the number of candidates (%d)", k, len(values))
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})
	return order[:k], nil
}

// BottomK returns the indices of the k smallest values, ordered from
// smallest to largest.
func BottomK(values []float64, k int) ([]int, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if k > len(values) {
		return nil, fmt.Errorf("k (%d) exceeds the number of candidates (%d)", k, len(values))
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})
	return order[:k], nil
}

// OnePointCrossover cuts both parents at a random interior point and swaps
// the tails. Parents shorter than two bits are returned unchanged.
func OnePointCrossover(rng *rand.Rand, p1, p2 Chromosome) (Chromosome, Chromosome, error) {
	if len(p1) != len(p2) {
		return nil, nil, fmt.Errorf("parents differ in length: %d vs %d", len(p1), len(p2))
	}
	n := len(p1)
	if n < 2 {
		return p1.Clone(), p2.Clone(), nil
	}

	cut := 1 + rng.Intn(n-1)
	c1 := make(Chromosome, 0, n)
	c1 = append(c1, p1[:cut]...)
	c1 = append(c1, p2[cut:]...)
	c2 := make(Chromosome, 0, n)
	c2 = append(c2, p2[:cut]...)
	c2 = append(c2, p1[cut:]...)
	return c1, c2, nil
}

// CrossoverPopulation pairs individuals (0,1), (2,3), ... and recombines
// each pair with probability rate; pairs that skip crossover pass through
// unchanged. An odd trailing individual is copied as is.
func CrossoverPopulation(rng *rand.Rand, pop Population, rate float64) (Population, error) {
	n := len(pop)
	next := make(Population, 0, n)

	for i := 0; i+1 < n; i += 2 {
		p1, p2 := pop[i], pop[i+1]
		if rng.Float64() >= rate {
			next = append(next, p1.Clone(), p2.Clone())
			continue
		}
		c1, c2, err := OnePointCrossover(rng, p1, p2)
		if err != nil {
			return nil, err
		}
		next = append(next, c1, c2)
	}
	if n%2 == 1 {
		next = append(next, pop[n-1].Clone())
	}
	return next, nil
}

// MutateChromosome flips each bit independently with probability rate and
// returns a new chromosome; the input is left untouched.
func MutateChromosome(rng *rand.Rand, c Chromosome, rate float64) Chromosome {
	out := c.Clone()
	for i, b := range out {
		if rng.Float64() < rate {
			out[i] = 1 - b
		}
	}
	return out
}

// MutatePopulation applies MutateChromosome to every individual.
func MutatePopulation(rng *rand.Rand, pop Population, rate float64) Population {
	next := make(Population, len(pop))
	for i, ind := range pop {
		next[i] = MutateChromosome(rng, ind, rate)
	}
	return next
}
