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
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"github.com/SiwaNetwork/ShiwaDiffPHC/phc"
)

// nowNS is the monotonic-in-realtime reader the engine anchors each
// iteration and offset estimate to. Tests substitute it for determinism.
var nowNS = func() int64 {
	return time.Now().UnixNano()
}

// opener is how Run acquires a DeviceReader for a given ID; production
// code uses phc.Open, tests substitute a mock-returning opener.
type opener func(phc.ID) (phc.DeviceReader, error)

func defaultOpener(id phc.ID) (phc.DeviceReader, error) {
	return phc.Open(id)
}

// Run validates cfg, checks for elevated privileges, opens every configured
// device, and drives the per-iteration polling loop until Count iterations
// have completed, the context is cancelled, or a fatal validation/open
// error occurs. It always returns a non-nil MeasurementResult;
// Success/Error report what happened.
//
// The privilege check exists to turn a cryptic EACCES from the kernel into
// a clean "Root privileges required" message; it only gates this
// entrypoint, not the lower-level run() the test suite drives directly
// against a mock opener, since a mock never touches a real character
// device and has nothing to be denied access to.
func Run(ctx context.Context, cfg Config) (*MeasurementResult, error) {
	if err := Validate(cfg); err != nil {
		return &MeasurementResult{Devices: cfg.Devices, Error: err.Error()}, err
	}
	if phc.RequiresElevatedPrivileges() {
		err := fmt.Errorf("Root privileges required") //nolint:revive,stylecheck
		return &MeasurementResult{Devices: cfg.Devices, Error: err.Error()}, err
	}
	return run(ctx, cfg, defaultOpener)
}

// run drives the polling loop against whatever opener is supplied. Run
// validates cfg before calling this; run itself does not re-validate, so
// the test suite can drive it directly against a mock opener without
// needing real character devices on disk.
func run(ctx context.Context, cfg Config, open opener) (*MeasurementResult, error) {
	result := &MeasurementResult{Devices: cfg.Devices}

	devices := make([]phc.DeviceReader, 0, len(cfg.Devices))
	for _, id := range cfg.Devices {
		dev, err := open(id)
		if err != nil {
			for _, d := range devices {
				_ = d.Close()
			}
			result.Error = fmt.Sprintf("PTP device %s open failed", phc.Path(id))
			return result, err
		}
		devices = append(devices, dev)
	}
	defer func() {
		for _, d := range devices {
			_ = d.Close()
		}
	}()

	offsets := make([]int64, len(devices))

	for iteration := 0; cfg.Count == 0 || iteration < cfg.Count; iteration++ {
		base := nowNS()

		for i, dev := range devices {
			// deviceNow is taken before this device's read starts, not
			// after: it measures how much time has elapsed since base
			// waiting on earlier devices in this iteration, not this
			// device's own read latency (EstimateOffset accounts for that
			// separately, via its own now() call at the end of the read).
			deviceNow := nowNS()

			samples, err := dev.ReadSamples(cfg.Samples)
			if err != nil {
				log.Warnf("sampling %s failed: %v", phc.Path(cfg.Devices[i]), err)
				offsets[i] = 0
				continue
			}
			if cfg.Debug {
				log.Debugf("device %s samples:\n%s", phc.Path(cfg.Devices[i]), spew.Sdump(samples))
			}

			estimate := phc.EstimateOffset(samples, nowNS)
			if estimate == 0 {
				log.Warnf("no valid samples survived the delay filter for %s", phc.Path(cfg.Devices[i]))
			}
			offsets[i] = int64(estimate) - (deviceNow - base)
		}

		result.Differences = append(result.Differences, IterationSnapshot{
			BaseTimestamp: base,
			Differences:   pairwiseDifferences(offsets),
		})
		result.BaseTimestamp = base

		last := cfg.Count != 0 && iteration == cfg.Count-1
		if last {
			break
		}

		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(cfg.DelayUS) * time.Microsecond):
		}
		if ctx.Err() != nil {
			break
		}
	}

	result.Success = true
	if len(result.Differences) > 0 {
		result.computeStatistics()
	}

	return result, nil
}

// pairwiseDifferences builds the lower-triangular row-major
// pairwise-difference vector M[i][j] = offsets[i] - offsets[j] for j <= i.
func pairwiseDifferences(offsets []int64) []int64 {
	n := len(offsets)
	diffs := make([]int64, NumPairs(n))
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			diffs[PairIndex(i, j)] = offsets[i] - offsets[j]
		}
	}
	return diffs
}
