package ga

import "math/rand"

// Population is a set of binary individuals of equal length.
type Population []Chromosome

// RandomChromosome returns a uniformly random bit string of length nbits.
func RandomChromosome(rng *rand.Rand, nbits int) Chromosome {
	c := make(Chromosome, nbits)
	for i := range c {
		c[i] = byte(rng.Intn(2))
	}
	return c
}

// NewPopulation generates size random individuals of nbits bits each.
func NewPopulation(rng *rand.Rand, size, nbits int) Population {
	pop := make(Population, size)
	for i := range pop {
		pop[i] = RandomChromosome(rng, nbits)
	}
	return pop
}

// Evaluate applies fitness to every individual and returns the scores in
// population order.
func (p Population) Evaluate(fitness func(Chromosome) float64) []float64 {
	scores := make([]float64, len(p))
	for i, ind := range p {
		scores[i] = fitness(ind)
	}
	return scores
}

// Best returns the index of the individual with the highest score.
// It returns -1 for an empty population.
func Best(scores []float64) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}
