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
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/SiwaNetwork/ShiwaDiffPHC/stats"
)

// PairAnalysis bundles the trend, spectral, and anomaly results for one
// device pair.
type PairAnalysis struct {
	Trend    stats.TrendAnalysis
	Spectral stats.SpectralAnalysis
	Anomaly  stats.AnomalyDetection
}

// AdvancedAnalysis runs trend, spectral, and anomaly detection for every
// device pair in r concurrently, indexed the same way PerPairStatistics is
// (PairIndex(i, j), j <= i). Pairs fan out with first-error cancellation,
// since every pair's analysis is independent and none needs the others'
// results.
func (r *MeasurementResult) AdvancedAnalysis(ctx context.Context, samplingRate float64, iqrMultiplier float64) ([]PairAnalysis, error) {
	n := len(r.Devices)
	numPairs := NumPairs(n)
	out := make([]PairAnalysis, numPairs)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			idx := PairIndex(i, j)
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				values := r.valuesForPair(idx)
				out[idx] = PairAnalysis{
					Trend:    stats.AnalyzeTrend(values),
					Spectral: stats.AnalyzeSpectrum(values, samplingRate),
					Anomaly:  stats.DetectAnomalies(values, iqrMultiplier),
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
