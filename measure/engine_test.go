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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SiwaNetwork/ShiwaDiffPHC/phc"
)

func TestRunEmptyDevicesFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = nil

	result, err := Run(context.Background(), cfg)

	require.Error(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Error, "No devices specified")
}

func TestRunSingleDeviceThreeIterations(t *testing.T) {
	origNow := nowNS
	nowNS = func() int64 { return 0 }
	defer func() { nowNS = origNow }()

	dev := &mockDeviceReader{}
	dev.On("ReadSamples", 4).Return([]phc.SampleTriple{{T0: 0, T1: 0, T2: 0}}, nil)
	dev.On("Close").Return(nil)

	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{0}
	cfg.Count = 3
	cfg.Samples = 4
	cfg.DelayUS = 1

	result, err := run(context.Background(), cfg, func(phc.ID) (phc.DeviceReader, error) {
		return dev, nil
	})

	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Differences, 3)
	for _, snap := range result.Differences {
		require.Equal(t, []int64{0}, snap.Differences)
	}

	require.Len(t, result.PerPairStatistics, 1)
	pair := result.PerPairStatistics[PairIndex(0, 0)]
	require.Equal(t, 3, pair.Count)
	require.Equal(t, int64(0), pair.Range)
	require.Equal(t, 0.0, pair.StdDev)
	require.Equal(t, 0.0, pair.Median)
	require.Equal(t, 0.0, pair.Mean)

	dev.AssertExpectations(t)
}

func TestRunClosesDevicesOnPartialOpenFailure(t *testing.T) {
	opened := &mockDeviceReader{}
	opened.On("Close").Return(nil)

	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{0, 1}

	calls := 0
	_, err := run(context.Background(), cfg, func(id phc.ID) (phc.DeviceReader, error) {
		calls++
		if id == 1 {
			return nil, phc.ErrDeviceNotFound
		}
		return opened, nil
	})

	require.Error(t, err)
	opened.AssertExpectations(t)
}

func TestRunRespectsContextCancellation(t *testing.T) {
	dev := &mockDeviceReader{}
	dev.On("ReadSamples", 4).Return([]phc.SampleTriple{{T0: 0, T1: 0, T2: 0}}, nil)
	dev.On("Close").Return(nil)

	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{0}
	cfg.Count = 0 // unbounded; only cancellation stops it
	cfg.Samples = 4
	cfg.DelayUS = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := run(ctx, cfg, func(phc.ID) (phc.DeviceReader, error) {
		return dev, nil
	})

	require.NoError(t, err)
	require.True(t, result.Success)
	require.LessOrEqual(t, len(result.Differences), 1)
}

func TestPairwiseDifferencesSyntheticTwoDeviceOffset(t *testing.T) {
	// Device 0 reads 1_000_000_000ns, device 1 reads 1_000_000_500ns.
	offsets := []int64{1_000_000_000, 1_000_000_500}
	diffs := pairwiseDifferences(offsets)

	require.Equal(t, []int64{0, 500, 0}, diffs)
}
