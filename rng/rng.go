// Package rng provides the seeded random stream shared by scenario generation.
//
// Every variate is drawn from a single PCG stream so that an identical seed and
// an identical sequence of draws reproduce a scenario bit for bit.
package rng

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is a deterministic random stream.
type Source struct {
	seed uint64
	pcg  *rand.PCG
	rnd  *rand.Rand
}

// New returns a stream seeded with seed.
func New(seed uint64) *Source {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Source{seed: seed, pcg: pcg, rnd: rand.New(pcg)}
}

// Seed returns the seed the stream was created with.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Uniform draws from U[lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: s.pcg}.Rand()
}

// Bernoulli returns true with probability p.
func (s *Source) Bernoulli(p float64) bool {
	return distuv.Bernoulli{P: p, Src: s.pcg}.Rand() == 1
}

// Float64 draws from U[0, 1).
func (s *Source) Float64() float64 {
	return s.rnd.Float64()
}
