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

package stats

import (
	"math"
	"math/cmplx"
)

// maxFFTPoints bounds how many input points SpectralAnalysis considers
// before zero-padding to a power of two; longer series are uniformly
// decimated down to this many points first. No anti-alias filter is
// applied before decimation, so spectral content above the decimated
// Nyquist frequency can alias into lower bins.
const maxFFTPoints = 1024

// PowerBands buckets spectral power by frequency range.
type PowerBands struct {
	Low  float64 // f < 0.1 Hz
	Mid  float64 // 0.1 Hz <= f < 1 Hz
	High float64 // f >= 1 Hz
}

// SpectralAnalysis is the result of a power-of-two FFT over a value series.
// Only the first N/2 bins are populated, since the input is real-valued
// and the upper half of the spectrum is its mirror image.
type SpectralAnalysis struct {
	Frequencies       []float64
	Magnitudes        []float64
	Phases            []float64
	DominantFrequency float64
	TotalPower        float64
	PowerBands        PowerBands
}

// AnalyzeSpectrum zero-pads values to the next power of two and runs an
// in-place Cooley-Tukey FFT. It requires at least 4 input points; shorter
// series yield an empty SpectralAnalysis. No windowing is applied, so
// non-bin-aligned frequencies leak across neighboring bins.
func AnalyzeSpectrum(values []int64, samplingRate float64) SpectralAnalysis {
	if len(values) < 4 {
		return SpectralAnalysis{}
	}

	input := decimate(values, maxFFTPoints)

	n := nextPow2(len(input))
	if n < 4 {
		n = 4
	}

	padded := make([]complex128, n)
	for i, v := range input {
		padded[i] = complex(float64(v), 0)
	}

	transformed := fft(padded)

	half := n / 2
	result := SpectralAnalysis{
		Frequencies: make([]float64, half),
		Magnitudes:  make([]float64, half),
		Phases:      make([]float64, half),
	}

	freqResolution := samplingRate / float64(n)
	maxMagnitude := -1.0
	dominantIdx := 0

	for k := 0; k < half; k++ {
		mag := cmplx.Abs(transformed[k])
		result.Frequencies[k] = float64(k) * freqResolution
		result.Magnitudes[k] = mag
		result.Phases[k] = cmplx.Phase(transformed[k])
		result.TotalPower += mag * mag

		if mag > maxMagnitude {
			maxMagnitude = mag
			dominantIdx = k
		}

		power := mag * mag
		switch {
		case result.Frequencies[k] < 0.1:
			result.PowerBands.Low += power
		case result.Frequencies[k] < 1.0:
			result.PowerBands.Mid += power
		default:
			result.PowerBands.High += power
		}
	}

	if half > 0 {
		result.DominantFrequency = result.Frequencies[dominantIdx]
	}

	return result
}

// decimate uniformly downsamples values to at most maxPoints entries by
// taking every step-th sample, where step = len(values) / maxPoints, and
// stopping once maxPoints samples are taken. No anti-alias filtering is
// applied.
func decimate(values []int64, maxPoints int) []int64 {
	if len(values) <= maxPoints {
		return values
	}
	step := len(values) / maxPoints
	if step < 1 {
		step = 1
	}
	out := make([]int64, 0, maxPoints)
	for i := 0; i < len(values) && len(out) < maxPoints; i += step {
		out = append(out, values[i])
	}
	return out
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// fft runs an iterative, in-place Cooley-Tukey FFT. len(input) must already
// be a power of two. The input is first reordered into bit-reversed index
// order, as the butterfly stages below assume.
func fft(input []complex128) []complex128 {
	n := len(input)
	result := make([]complex128, n)
	copy(result, input)
	bitReverse(result)

	for length := 1; length < n; length <<= 1 {
		angle := -math.Pi / float64(length)
		wlen := cmplx.Rect(1, angle)

		for i := 0; i < n; i += length << 1 {
			w := complex(1, 0)
			for j := 0; j < length; j++ {
				u := result[i+j]
				v := result[i+j+length] * w
				result[i+j] = u + v
				result[i+j+length] = u - v
				w *= wlen
			}
		}
	}

	return result
}

// bitReverse permutes data in place so that the element at index i moves to
// the index formed by reversing i's bits across log2(len(data)) positions.
// len(data) must be a power of two.
func bitReverse(data []complex128) {
	n := len(data)
	j := 0
	for i := 1; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			data[i], data[j] = data[j], data[i]
		}
	}
}
