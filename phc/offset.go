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

package phc

import (
	"math"
	"time"
)

// SampleTriple is one (system-before, phc, system-after) reading as
// returned by a single row of PTP_SYS_OFFSET_EXTENDED.
type SampleTriple struct {
	T0 int64 // system clock immediately before the PHC read, ns
	T1 int64 // PHC reading, ns
	T2 int64 // system clock immediately after the PHC read, ns
}

// Delay is the round-trip delay t2 - t0 bracketing the PHC read.
func (s SampleTriple) Delay() int64 {
	return s.T2 - s.T0
}

// OffsetEstimate is a signed nanosecond scalar giving the PHC's reading
// mapped onto the system's realtime timeline, at the instant it was
// computed. The sentinel 0 means "no valid sample": EstimateOffset returns it
// for an empty batch or when no triple survives the delay filter.
type OffsetEstimate int64

// maxExcessDelay bounds how much slower than the fastest observed sample a
// triple's round-trip delay may be and still be admitted. 100us matches the
// kernel ioctl's typical syscall overhead budget.
const maxExcessDelay = 100_000

// nowNS is the reference monotonic-in-realtime reader EstimateOffset falls
// back to when it is passed a nil now function, so callers that don't care
// about determinism can pass nil; tests pass their own now function for
// reproducibility.
var nowNS = func() int64 {
	return time.Now().UnixNano()
}

// EstimateOffset reduces a batch of sample triples from one PHC to a single
// OffsetEstimate referenced against now().
//
// It keeps only the triples whose round-trip delay is within maxExcessDelay
// of the batch's minimum delay (the low-overhead samples least corrupted by
// scheduling jitter), accumulates their system/PHC deltas against the first
// admitted triple, and reports the PHC's reading at the instant now() is
// called, adjusted for half the round-trip delay as an estimate of the
// one-way latency into the PHC hardware.
func EstimateOffset(samples []SampleTriple, now func() int64) OffsetEstimate {
	if now == nil {
		now = nowNS
	}
	if len(samples) == 0 {
		return 0
	}

	minDelay := samples[0].Delay()
	for _, s := range samples[1:] {
		if d := s.Delay(); d < minDelay {
			minDelay = d
		}
	}

	var (
		m                  int64
		sysBase, phcBase   int64
		sysTotal, phcTotal int64
		delayTotal         float64
	)

	for _, s := range samples {
		delay := s.Delay()
		if s.T0 > s.T2 || delay > minDelay+maxExcessDelay {
			continue
		}
		if m == 0 {
			sysBase, phcBase = s.T0, s.T1
		}
		sysTotal += s.T0 - sysBase
		phcTotal += s.T1 - phcBase
		delayTotal += float64(delay) / 2
		m++
	}

	if m == 0 {
		return 0
	}

	sysTime := sysBase + roundDiv(sysTotal, m) + int64(math.Round(delayTotal/float64(m)))
	phcTime := phcBase + roundDiv(phcTotal, m)

	return OffsetEstimate(now() + phcTime - sysTime)
}

// roundDiv divides a non-negative-biased accumulator by m with
// banker-symmetric rounding: add m/2 before truncating, matching the
// kernel-facing C reference's (total + count/2) / count.
func roundDiv(total, m int64) int64 {
	if m == 0 {
		return 0
	}
	return (total + m/2) / m
}
