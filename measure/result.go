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

package measure

import (
	"github.com/SiwaNetwork/ShiwaDiffPHC/phc"
	"github.com/SiwaNetwork/ShiwaDiffPHC/stats"
)

// IterationSnapshot is the outcome of one pass over every selected device:
// the base timestamp the iteration was anchored to, and the lower-triangular
// pairwise-difference vector derived from that iteration's offsets.
type IterationSnapshot struct {
	BaseTimestamp int64
	Differences   []int64
}

// PairIndex returns the row-major lower-triangular index of pair (i, j)
// with j <= i, as used by IterationSnapshot.Differences and
// MeasurementResult.PerPairStatistics. Panics if j > i.
func PairIndex(i, j int) int {
	if j > i {
		panic("measure: PairIndex requires j <= i")
	}
	return i*(i+1)/2 + j
}

// NumPairs returns the number of lower-triangular entries (including the
// diagonal) for n devices: n(n+1)/2.
func NumPairs(n int) int {
	return n * (n + 1) / 2
}

// MeasurementResult is the external handoff value: the raw matrix, the
// per-pair statistics, and success/error status. It is owned by the caller
// once Run returns; nothing in this package retains a reference to it.
type MeasurementResult struct {
	Devices             []phc.ID
	Differences         []IterationSnapshot
	BaseTimestamp       int64
	Success             bool
	Error               string
	PerPairStatistics   []stats.PairStatistics // indexed by PairIndex(i, j)
}

// valuesForPair extracts, in iteration-completion order, the series of
// difference values recorded at lower-triangular index idx across every
// iteration.
func (r *MeasurementResult) valuesForPair(idx int) []int64 {
	values := make([]int64, 0, len(r.Differences))
	for _, snap := range r.Differences {
		if idx < len(snap.Differences) {
			values = append(values, snap.Differences[idx])
		}
	}
	return values
}

// computeStatistics populates PerPairStatistics from Differences. It is
// idempotent: calling it twice over the same Differences produces
// identical statistics.
func (r *MeasurementResult) computeStatistics() {
	n := len(r.Devices)
	r.PerPairStatistics = make([]stats.PairStatistics, NumPairs(n))
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			idx := PairIndex(i, j)
			r.PerPairStatistics[idx] = stats.Compute(r.valuesForPair(idx))
		}
	}
}
