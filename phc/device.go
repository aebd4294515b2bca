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

// Package phc opens and reads PTP Hardware Clock character devices
// (/dev/ptpN) and estimates the offset of a PHC against the system clock
// from the samples the PTP_SYS_OFFSET_EXTENDED ioctl returns.
package phc

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	ptpunix "github.com/SiwaNetwork/ShiwaDiffPHC/phc/unix"
)

// ID names a PHC the way the kernel does: the N in /dev/ptpN.
type ID int

// MaxSamples is the kernel-defined upper bound on samples per
// PTP_SYS_OFFSET_EXTENDED call (PTP_MAX_SAMPLES in linux/ptp_clock.h).
// ReadSamples clamps any larger request to this value.
const MaxSamples = ptpunix.MaxSamples

// ErrDeviceNotFound is returned when the character device for an ID doesn't
// exist or can't be opened for any reason other than a permission error.
var ErrDeviceNotFound = errors.New("PTP device not found or not accessible")

// ErrPermissionDenied is returned when opening a PHC device fails with
// EACCES/EPERM.
var ErrPermissionDenied = errors.New("permission denied opening PTP device")

// Path returns the character device path for a PHC ID, canonically
// /dev/ptpN on Linux. The mapping is otherwise opaque to callers.
func Path(id ID) string {
	return fmt.Sprintf("/dev/ptp%d", id)
}

// Capabilities reports a PHC's static capabilities, as probed via
// PTP_CLOCK_GETCAPS and a single-sample PTP_SYS_OFFSET_EXTENDED call.
type Capabilities struct {
	MaxAdjPPB               float64
	NExtTS                  int
	NPins                   int
	PPSSupported            bool
	ExtendedOffsetSupported bool
}

// DeviceReader is the interface the measurement engine depends on, so it can
// be driven against a real character device or a test double.
type DeviceReader interface {
	// ReadSamples issues PTP_SYS_OFFSET_EXTENDED for up to n samples
	// (clamped to ptpunix.MaxSamples) and returns the raw triples.
	ReadSamples(n int) ([]SampleTriple, error)
	// Capabilities probes the device's static capabilities.
	Capabilities() (Capabilities, error)
	// Close releases the underlying file descriptor.
	Close() error
}

// Device is a DeviceReader backed by an open /dev/ptpN file.
type Device struct {
	id ID
	f  *os.File
}

// Open acquires read access to the PHC named by id and sets close-on-exec
// on the resulting descriptor.
func Open(id ID) (*Device, error) {
	path := Path(id)
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%s: %w", path, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("%s: %w", path, ErrDeviceNotFound)
	}
	flags, err := unix.FcntlInt(f.Fd(), unix.F_GETFD, 0)
	if err == nil {
		_, _ = unix.FcntlInt(f.Fd(), unix.F_SETFD, flags|unix.FD_CLOEXEC)
	}
	return &Device{id: id, f: f}, nil
}

// Close closes the underlying device file.
func (d *Device) Close() error {
	return d.f.Close()
}

// ID returns the PHC ID this device was opened with.
func (d *Device) ID() ID {
	return d.id
}

// Capabilities issues PTP_CLOCK_GETCAPS and a 1-sample
// PTP_SYS_OFFSET_EXTENDED probe to determine what the device supports.
// EOPNOTSUPP on the extended-offset probe is treated as "not supported"
// rather than an error, per the kernel contract for older PHC drivers.
func (d *Device) Capabilities() (Capabilities, error) {
	var caps ptpunix.ClockCaps
	if err := ptpunix.Ioctl(d.f.Fd(), uintptr(ptpunix.IoctlClockGetCaps), unsafe.Pointer(&caps)); err != nil {
		return Capabilities{}, fmt.Errorf("PTP_CLOCK_GETCAPS on %s: %w", d.f.Name(), err)
	}

	probe := ptpunix.SysOffsetExtended{NSamples: 1}
	extendedSupported := true
	if err := ptpunix.Ioctl(d.f.Fd(), uintptr(ptpunix.IoctlSysOffsetExtended), unsafe.Pointer(&probe)); err != nil {
		if !ptpunix.IsUnsupported(err) {
			return Capabilities{}, fmt.Errorf("PTP_SYS_OFFSET_EXTENDED probe on %s: %w", d.f.Name(), err)
		}
		extendedSupported = false
	}

	maxAdj := float64(caps.MaxAdj)
	if maxAdj == 0 {
		maxAdj = DefaultMaxClockFreqPPB
	}

	return Capabilities{
		MaxAdjPPB:               maxAdj,
		NExtTS:                  int(caps.NExtTS),
		NPins:                   int(caps.NPins),
		PPSSupported:            caps.PPS != 0,
		ExtendedOffsetSupported: extendedSupported,
	}, nil
}

// DefaultMaxClockFreqPPB is used when a PHC reports MaxAdj == 0, the value
// linuxptp's clockadj.c falls back to.
const DefaultMaxClockFreqPPB = 500000.0

// ReadSamples issues PTP_SYS_OFFSET_EXTENDED for n samples (clamped to
// ptpunix.MaxSamples) and converts the kernel's {sec, nsec} pairs into
// SampleTriple nanosecond scalars.
func (d *Device) ReadSamples(n int) ([]SampleTriple, error) {
	if n > ptpunix.MaxSamples {
		n = ptpunix.MaxSamples
	}
	if n < 1 {
		n = 1
	}

	req := ptpunix.SysOffsetExtended{NSamples: uint32(n)}
	if err := ptpunix.Ioctl(d.f.Fd(), uintptr(ptpunix.IoctlSysOffsetExtended), unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("PTP_SYS_OFFSET_EXTENDED on %s: %w", d.f.Name(), err)
	}

	out := make([]SampleTriple, n)
	for i := 0; i < n; i++ {
		out[i] = SampleTriple{
			T0: req.TS[i][0].Nanoseconds(),
			T1: req.TS[i][1].Nanoseconds(),
			T2: req.TS[i][2].Nanoseconds(),
		}
	}
	return out, nil
}

// Enumerate probes /dev/ptp0, /dev/ptp1, ... sequentially until an open
// fails, returning the prefix of IDs that opened successfully. Probe
// handles are closed before Enumerate returns.
func Enumerate() []ID {
	var ids []ID
	for i := ID(0); ; i++ {
		d, err := Open(i)
		if err != nil {
			break
		}
		ids = append(ids, i)
		if cerr := d.Close(); cerr != nil {
			log.Debugf("closing probe handle for %s: %v", Path(i), cerr)
		}
	}
	return ids
}

// RequiresElevatedPrivileges reports whether the calling process is
// unlikely to have permission to open PHC devices, canonically: is the
// effective user not root. External layers can use this to produce a
// clean error message instead of a cryptic open failure.
func RequiresElevatedPrivileges() bool {
	return os.Geteuid() != 0
}
