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
	"github.com/stretchr/testify/mock"

	"github.com/SiwaNetwork/ShiwaDiffPHC/phc"
)

// mockDeviceReader is a hand-written phc.DeviceReader test double, in the
// style of calnex/firmware's MockCalnexUpgrader: embed mock.Mock, record
// calls, and let the test set up expectations with .On(...).
type mockDeviceReader struct {
	mock.Mock
}

func (m *mockDeviceReader) ReadSamples(n int) ([]phc.SampleTriple, error) {
	args := m.Called(n)
	samples, _ := args.Get(0).([]phc.SampleTriple)
	return samples, args.Error(1)
}

func (m *mockDeviceReader) Capabilities() (phc.Capabilities, error) {
	args := m.Called()
	caps, _ := args.Get(0).(phc.Capabilities)
	return caps, args.Error(1)
}

func (m *mockDeviceReader) Close() error {
	args := m.Called()
	return args.Error(0)
}
