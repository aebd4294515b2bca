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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SiwaNetwork/ShiwaDiffPHC/phc"
)

func TestValidateNoDevices(t *testing.T) {
	cfg := DefaultConfig()
	err := Validate(cfg)

	require.Error(t, err)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Contains(t, cfgErr.Error(), "No devices specified")
}

func TestValidateNegativeCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{0}
	cfg.Count = -1

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid count parameter")
}

func TestValidateDelayOutOfBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{0}

	cfg.DelayUS = 0
	require.ErrorContains(t, Validate(cfg), "Invalid delay parameter")

	cfg.DelayUS = maxDelayUS + 1
	require.ErrorContains(t, Validate(cfg), "Invalid delay parameter")
}

func TestValidateSamplesOutOfBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{0}

	cfg.Samples = 0
	require.ErrorContains(t, Validate(cfg), "Invalid samples parameter")

	cfg.Samples = phc.MaxSamples + 1
	require.ErrorContains(t, Validate(cfg), "Invalid samples parameter")
}

func TestValidateDuplicateDevices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{0, 0}

	require.ErrorContains(t, Validate(cfg), "Duplicate devices specified")
}

func TestValidateNegativeDeviceID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{-1}

	require.ErrorContains(t, Validate(cfg), "Invalid device number")
}

func TestValidateUnreachableDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = []phc.ID{9999} // never present in any test environment

	require.ErrorContains(t, Validate(cfg), "not found or not accessible")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 0, cfg.Count)
	require.Equal(t, 100_000, cfg.DelayUS)
	require.Equal(t, 10, cfg.Samples)
	require.Empty(t, cfg.Devices)
}
