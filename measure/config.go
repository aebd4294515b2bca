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

// Package measure drives the per-iteration PHC polling loop, validates
// configuration ahead of running it, and aggregates the pairwise-difference
// matrix plus per-pair statistics into a MeasurementResult.
package measure

import (
	"fmt"

	"github.com/SiwaNetwork/ShiwaDiffPHC/phc"
)

// maxDelayUS and minDelayUS bound Config.DelayUS.
const (
	minDelayUS = 1
	maxDelayUS = 10_000_000
)

// Config holds everything the measurement engine needs to run one
// invocation. There is no file-backed persistence for it; callers build one
// with DefaultConfig and override fields directly.
type Config struct {
	// Devices is the non-empty ordered list of PHC ids to poll. Order
	// determines the row/column order of the difference matrix.
	Devices []phc.ID
	// Count is the number of iterations to run; 0 means unbounded until
	// the context passed to Run is cancelled.
	Count int
	// DelayUS is the inter-iteration sleep, in microseconds.
	DelayUS int
	// Samples is the per-PHC batch size passed to ReadSamples.
	Samples int
	// Debug makes the engine dump each device's raw sample batch through
	// logrus at debug level; the engine does not change the logger's
	// level, so the dump appears only when the caller has set it to debug.
	// It never affects numeric output.
	Debug bool
}

// DefaultConfig returns a Config with sensible defaults: unbounded
// iterations, a 100ms inter-iteration delay, and 10 samples per PHC per
// iteration. Devices is left empty; callers must set it.
func DefaultConfig() Config {
	return Config{
		Count:   0,
		DelayUS: 100_000,
		Samples: 10,
	}
}

// ConfigError wraps a validation failure from Validate, so callers can tell
// a bad configuration apart from a device-open or runtime error via
// errors.As.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// Validate checks bounds and device accessibility before the engine runs.
// It opens and immediately closes every referenced device; Run reopens
// them itself once validation succeeds.
func Validate(cfg Config) error {
	if cfg.Count < 0 {
		return configErrorf("Invalid count parameter: must be >= 0 (0 = infinite)")
	}
	if cfg.DelayUS < minDelayUS {
		return configErrorf("Invalid delay parameter: must be >= 1 microsecond")
	}
	if cfg.DelayUS > maxDelayUS {
		return configErrorf("Invalid delay parameter: must be <= %d microseconds (10 seconds)", maxDelayUS)
	}
	if cfg.Samples < 1 {
		return configErrorf("Invalid samples parameter: must be >= 1")
	}
	if cfg.Samples > phc.MaxSamples {
		return configErrorf("Invalid samples parameter: must be <= %d", phc.MaxSamples)
	}
	if len(cfg.Devices) == 0 {
		return configErrorf("No devices specified")
	}

	seen := make(map[phc.ID]struct{}, len(cfg.Devices))
	for _, d := range cfg.Devices {
		if _, dup := seen[d]; dup {
			return configErrorf("Duplicate devices specified")
		}
		seen[d] = struct{}{}
		if d < 0 {
			return configErrorf("Invalid device number: %d (must be >= 0)", d)
		}
	}

	for _, d := range cfg.Devices {
		dev, err := phc.Open(d)
		if err != nil {
			return configErrorf("PTP device %s not found or not accessible", phc.Path(d))
		}
		_ = dev.Close()
	}

	return nil
}
