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

// Package unix holds the PTP ioctl request codes and wire structs that are
// missing from golang.org/x/sys/unix, as defined in the kernel's
// include/uapi/linux/ptp_clock.h.
package unix

import (
	"unsafe"

	"github.com/vtolstov/go-ioctl"
	"golang.org/x/sys/unix"
)

const (
	// MaxSamples mirrors PTP_MAX_SAMPLES from linux/ptp_clock.h.
	MaxSamples = 25
	clkMagic   = '='
)

// ClockTime mirrors struct ptp_clock_time.
type ClockTime struct {
	Sec      int64
	NSec     uint32
	Reserved uint32
}

// Nanoseconds converts a ClockTime to a single int64 nanosecond count.
func (t ClockTime) Nanoseconds() int64 {
	return t.Sec*1_000_000_000 + int64(t.NSec)
}

// SysOffsetExtended mirrors struct ptp_sys_offset_extended. The kernel fills
// in NSamples rows of [system_before, phc, system_after] timestamps in a
// single ioctl call.
type SysOffsetExtended struct {
	NSamples uint32
	Reserved [3]uint32
	TS       [MaxSamples][3]ClockTime
}

// ClockCaps mirrors struct ptp_clock_caps.
type ClockCaps struct {
	MaxAdj            int32
	NAlarm            int32
	NExtTS            int32
	NPerOut           int32
	PPS               int32
	NPins             int32
	CrossTimestamping int32
	AdjustPhase       int32
	Rsv               [12]int32
}

// Ioctl request codes for the PTP character device, as per
// PTP_SYS_OFFSET_EXTENDED and PTP_CLOCK_GETCAPS in linux/ptp_clock.h.
var (
	IoctlSysOffsetExtended = ioctl.IOWR(clkMagic, 9, unsafe.Sizeof(SysOffsetExtended{}))
	IoctlClockGetCaps      = ioctl.IOR(clkMagic, 1, unsafe.Sizeof(ClockCaps{}))
)

// Ioctl issues req against fd with arg pointing at v, returning the errno as
// a Go error (nil on success).
func Ioctl(fd uintptr, req uintptr, v unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(v))
	if errno != 0 {
		return errno
	}
	return nil
}

// IsUnsupported reports whether err is the kernel's "operation not
// supported" errno, which PTP_SYS_OFFSET_EXTENDED returns on PHCs that
// don't implement the extended-offset ioctl.
func IsUnsupported(err error) bool {
	errno, ok := err.(unix.Errno)
	return ok && errno == unix.EOPNOTSUPP
}
