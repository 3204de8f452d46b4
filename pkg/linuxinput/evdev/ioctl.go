//go:build linux

package evdev

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// _IOC encoding for the 'E' (input) ioctl family, read direction.
const (
	iocRead      = 2
	iocNrShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
)

// eviocgname returns the EVIOCGNAME(len) ioctl request number.
func eviocgname(length int) uint {
	return uint(iocRead<<iocDirShift | length<<iocSizeShift | 'E'<<iocTypeShift | 0x06<<iocNrShift)
}

// eviocgbit returns the EVIOCGBIT(ev, len) ioctl request number.
// ev == 0 queries the supported event types; ev == EV_KEY, EV_REL etc.
// query the code bitmap for that event type.
func eviocgbit(ev, length int) uint {
	return uint(iocRead<<iocDirShift | length<<iocSizeShift | 'E'<<iocTypeShift | (0x20+ev)<<iocNrShift)
}

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func open(path string) (int, error) {
	return unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
}
