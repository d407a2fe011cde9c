// Package ga provides the genetic-algorithm primitives shared by the
// experiments: binary interval coding, population generation, selection,
// crossover, and mutation operators for both binary and real-coded
// individuals.
package ga

import "fmt"

// Chromosome is a fixed-length binary string. Each element is 0 or 1.
type Chromosome []byte

// Clone returns an independent copy of the chromosome.
func (c Chromosome) Clone() Chromosome {
	out := make(Chromosome, len(c))
	copy(out, c)
	return out
}

// Encode maps x in [lo, hi] onto nbits bits, most significant bit first.
// Values outside the interval are clamped to its edges.
func Encode(x, lo, hi float64, nbits int) (Chromosome, error) {
	if lo >= hi {
		return nil, fmt.Errorf("invalid interval [%g, %g]: lower bound must be below upper bound", lo, hi)
	}
	if nbits <= 0 {
		return nil, fmt.Errorf("invalid bit count %d", nbits)
	}

	if x < lo {
		x = lo
	} else if x > hi {
		x = hi
	}

	maxInt := int64(1)<<nbits - 1
	k := int64((x-lo)/(hi-lo)*float64(maxInt) + 0.5)
	if k < 0 {
		k = 0
	} else if k > maxInt {
		k = maxInt
	}

	bits := make(Chromosome, nbits)
	for i := 0; i < nbits; i++ {
		bits[i] = byte(k >> (nbits - 1 - i) & 1)
	}
	return bits, nil
}

// Decode maps a bit string back onto [lo, hi]. The full-zero chromosome
// decodes to lo and the full-one chromosome to hi.
func Decode(bits Chromosome, lo, hi float64) (float64, error) {
	if lo >= hi {
		return 0, fmt.Errorf("invalid interval [%g, %g]: lower bound must be below upper bound", lo, hi)
	}
	if len(bits) == 0 {
		return 0, fmt.Errorf("empty chromosome")
	}

	var k int64
	for _, b := range bits {
		k = k<<1 | int64(b&1)
	}
	maxInt := int64(1)<<len(bits) - 1
	return lo + float64(k)/float64(maxInt)*(hi-lo), nil
}
