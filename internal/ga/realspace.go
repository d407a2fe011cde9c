package ga

import "math/rand"

// Interval bounds a real-valued gene.
type Interval struct {
	Lo, Hi float64
}

// Clamp returns x forced into the interval.
func (iv Interval) Clamp(x float64) float64 {
	if x < iv.Lo {
		return iv.Lo
	}
	if x > iv.Hi {
		return iv.Hi
	}
	return x
}

// RealVector is a real-coded individual: one float per gene.
type RealVector []float64

// Clone returns an independent copy of the vector.
func (v RealVector) Clone() RealVector {
	out := make(RealVector, len(v))
	copy(out, v)
	return out
}

// RandomRealVector samples each gene uniformly within its interval.
func RandomRealVector(rng *rand.Rand, bounds []Interval) RealVector {
	v := make(RealVector, len(bounds))
	for i, iv := range bounds {
		v[i] = iv.Lo + rng.Float64()*(iv.Hi-iv.Lo)
	}
	return v
}

// RandomRealPopulation generates size independent real-coded individuals.
func RandomRealPopulation(rng *rand.Rand, size int, bounds []Interval) []RealVector {
	pop := make([]RealVector, size)
	for i := range pop {
		pop[i] = RandomRealVector(rng, bounds)
	}
	return pop
}

// GaussianMutate perturbs each gene with probability rate by an N(0, sigma)
// step and clamps the result to the gene's interval. The input vector is
// left untouched.
func GaussianMutate(rng *rand.Rand, v RealVector, bounds []Interval, rate, sigma float64) RealVector {
	out := v.Clone()
	for i := range out {
		if rng.Float64() < rate {
			out[i] = bounds[i].Clamp(out[i] + rng.NormFloat64()*sigma)
		}
	}
	return out
}
