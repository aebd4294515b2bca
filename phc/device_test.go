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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	require.Equal(t, "/dev/ptp0", Path(0))
	require.Equal(t, "/dev/ptp7", Path(7))
}

func TestOpenMissingDeviceIsNotFound(t *testing.T) {
	// ID 9999 will never correspond to a present /dev/ptpN node in any test
	// environment this runs in.
	_, err := Open(9999)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestEnumerateWithNoDevicesPresent(t *testing.T) {
	// Enumerate probes starting at /dev/ptp0; in a container or CI runner
	// without any PHC hardware this must return an empty, non-nil-panicking
	// slice rather than erroring.
	ids := Enumerate()
	for _, id := range ids {
		require.GreaterOrEqual(t, int(id), 0)
	}
	require.Less(t, len(ids), 1000, "Enumerate must not loop forever when no PHC devices are present")
}
