/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package stats is the statistical pipeline that runs over the
// pairwise-difference matrix a measurement produces: basic descriptive
// statistics per device pair, trend analysis, spectral analysis, and
// anomaly detection.
package stats

import (
	"sort"

	"github.com/eclesh/welford"
	"golang.org/x/exp/constraints"
)

// PairStatistics summarizes the series of difference values recorded for a
// single ordered device pair (i, j) with j <= i, across every iteration of
// a measurement.
type PairStatistics struct {
	Count  int
	Median float64
	Mean   float64
	Min    int64
	Max    int64
	Range  int64
	StdDev float64
}

// Compute reduces a series of per-iteration difference values for one
// device pair to a PairStatistics. It is pure: calling it twice on the
// same slice yields identical results.
func Compute(values []int64) PairStatistics {
	if len(values) == 0 {
		return PairStatistics{}
	}

	minV, maxV := extrema(values)

	acc := welford.New()
	for _, v := range values {
		acc.Add(float64(v))
	}

	stdDev := 0.0
	if len(values) > 1 {
		stdDev = acc.Stddev()
	}

	return PairStatistics{
		Count:  len(values),
		Median: median(values),
		Mean:   acc.Mean(),
		Min:    minV,
		Max:    maxV,
		Range:  maxV - minV,
		StdDev: stdDev,
	}
}

// extrema returns the minimum and maximum of a non-empty slice.
func extrema[T constraints.Ordered](values []T) (min, max T) {
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// median sorts a copy of values and returns the middle element (odd count)
// or the midpoint of the two middle elements (even count).
func median(values []int64) float64 {
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
