// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// BanditExplorer selects a bounded exploration subset by Thompson sampling:
// one draw from each candidate's Beta posterior, keeping the top samples.
// Higher posterior variance widens the sampling spread, so uncertain
// candidates are more likely to be drawn; candidates with no recorded
// outcomes get the uniform prior and are explored most aggressively.
//
// All randomness flows through the injected source so behavior is
// reproducible under test with a fixed seed.
type BanditExplorer struct {
	beliefs BeliefStore
	budget  float64

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewBanditExplorer creates an explorer with the given seeded source.
func NewBanditExplorer(cfg *Config, beliefs BeliefStore, rng *rand.Rand) *BanditExplorer {
	return &BanditExplorer{
		beliefs: beliefs,
		budget:  cfg.Bandit.Budget,
		rng:     rng,
	}
}

// SelectExplorationCandidates returns floor(poolSize x budget) candidate
// IDs drawn by Thompson sampling over the candidate list, excluding any IDs
// in the exclude set. poolSize is passed separately so the budget stays
// anchored to the full gated pool even when exclusions shrink the eligible
// list. A belief-store failure degrades to uniform priors for the whole
// pool rather than skipping exploration.
func (e *BanditExplorer) SelectExplorationCandidates(ctx context.Context, candidateIDs []UserID, poolSize int, exclude map[UserID]struct{}) []UserID {
	count := int(math.Floor(float64(poolSize) * e.budget))
	if count <= 0 || len(candidateIDs) == 0 {
		return nil
	}

	eligible := make([]UserID, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if _, skip := exclude[id]; skip {
			continue
		}
		eligible = append(eligible, id)
	}
	if count > len(eligible) {
		count = len(eligible)
	}
	if count == 0 {
		return nil
	}

	beliefs, err := e.beliefs.Beliefs(ctx, eligible)
	if err != nil {
		beliefs = nil
	}

	type draw struct {
		id     UserID
		sample float64
	}
	draws := make([]draw, 0, len(eligible))

	e.rngMu.Lock()
	for _, id := range eligible {
		b, ok := beliefs[id]
		if !ok {
			b = NewBelief()
		}
		draws = append(draws, draw{id: id, sample: sampleBeta(e.rng, b.Alpha, b.Beta)})
	}
	e.rngMu.Unlock()

	sort.Slice(draws, func(i, j int) bool {
		if draws[i].sample != draws[j].sample {
			return draws[i].sample > draws[j].sample
		}
		return draws[i].id < draws[j].id
	})

	picked := make([]UserID, count)
	for i := range picked {
		picked[i] = draws[i].id
	}
	return picked
}

// sampleBeta draws from Beta(a, b) via two gamma draws. Invalid parameters
// fall back to the posterior mean so a corrupt belief record cannot poison
// the draw with NaN.
func sampleBeta(rng *rand.Rand, a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return Belief{Alpha: a, Beta: b}.Mean()
	}
	x := sampleGamma(rng, a)
	y := sampleGamma(rng, b)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang
// squeeze method, with the standard boosting trick for shape < 1.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		// Gamma(a) = Gamma(a+1) * U^(1/a)
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		x := rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v

		u := rng.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}
