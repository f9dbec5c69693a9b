// Emberline - Reciprocal Matching Engine for Two-Sided Discovery
// Copyright 2026 Emberline Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emberline/emberline

package match

import (
	"context"
	"sort"
)

// FairnessCalibrator rebalances scores across exposure cohorts so no cohort
// is systematically under-shown relative to its target exposure share. This
// breaks the popularity feedback loop where high-exposure cohorts
// monotonically gain more exposure.
//
// Calibration runs after base scoring and before final list assembly, so
// the featured-slot selector and the explorer both see calibrated scores.
type FairnessCalibrator struct {
	exposure ExposureTracker
	cfg      FairnessConfig
}

// NewFairnessCalibrator creates a calibrator over the given exposure tracker.
func NewFairnessCalibrator(cfg *Config, exposure ExposureTracker) *FairnessCalibrator {
	return &FairnessCalibrator{exposure: exposure, cfg: cfg.Fairness}
}

// EnforceExposureParity adjusts scores in place and re-sorts. Candidates
// are grouped by the configured cohort attribute; every member of a cohort
// whose recent exposure share is below the under-exposure ratio of its
// target share gets the same boost, so relative rank within a cohort is
// unchanged. The target share is uniform across the cohorts present in the
// candidate list.
//
// Returns the cohort values that were boosted, for observability. A
// tracker failure leaves all multipliers at 1.0: parity correction is an
// optimization, not a gate, so it degrades rather than fails the feed.
func (f *FairnessCalibrator) EnforceExposureParity(ctx context.Context, candidates []CandidateScore, profiles map[UserID]*Profile) []string {
	if len(candidates) == 0 {
		return nil
	}

	cohortOf := make(map[UserID]string, len(candidates))
	cohorts := make(map[string]struct{})
	for i := range candidates {
		p := profiles[candidates[i].CandidateID]
		if p == nil {
			continue
		}
		val := cohortValue(p, f.cfg.CohortField)
		if val == "" {
			continue
		}
		cohortOf[candidates[i].CandidateID] = val
		cohorts[val] = struct{}{}
	}
	if len(cohorts) < 2 {
		// Parity is meaningless with a single cohort.
		sortByScore(candidates)
		return nil
	}

	rates, err := f.exposure.ExposureRates(ctx, f.cfg.CohortField)
	if err != nil {
		sortByScore(candidates)
		return nil
	}

	target := 1.0 / float64(len(cohorts))
	threshold := f.cfg.UnderExposureRatio * target

	boosted := make(map[string]struct{})
	for cohort := range cohorts {
		if rates[cohort] < threshold {
			boosted[cohort] = struct{}{}
		}
	}

	if len(boosted) > 0 {
		for i := range candidates {
			cohort, ok := cohortOf[candidates[i].CandidateID]
			if !ok {
				continue
			}
			if _, under := boosted[cohort]; under {
				candidates[i].Fairness = f.cfg.Boost
				candidates[i].ReciprocalScore *= f.cfg.Boost
			}
		}
	}

	sortByScore(candidates)

	names := make([]string, 0, len(boosted))
	for cohort := range boosted {
		names = append(names, cohort)
	}
	sort.Strings(names)
	return names
}

// cohortValue extracts the grouping attribute from a profile.
func cohortValue(p *Profile, field string) string {
	switch field {
	case "gender":
		return p.Gender
	case "region":
		return p.Region
	case "language":
		return p.Language
	default:
		return p.Attributes[field]
	}
}
