//go:build linux

// Package evdev provides pure Go access to Linux evdev input device
// nodes: enumeration, capability queries, and non-blocking event reads.
package evdev

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// FindDevices enumerates /dev/input/event* nodes and returns those that
// classify as keyboards or pointing devices. Nodes that cannot be
// opened or queried are skipped.
func FindDevices() ([]DeviceInfo, error) {
	return findDevices(false)
}

// FindAllDevices enumerates every event node regardless of class.
func FindAllDevices() ([]DeviceInfo, error) {
	return findDevices(true)
}

func findDevices(includeUnknown bool) ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/sys/class/input")
	if err != nil {
		if os.IsNotExist(err) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read input class directory: %w", err)
	}

	var devices []DeviceInfo

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}

		devicePath := "/dev/input/" + entry.Name()

		info, err := Query(devicePath)
		if err != nil {
			slog.With("component", "linuxinput").Debug("failed to query input device", "path", devicePath, "error", err)
			continue
		}

		if !includeUnknown && info.Class == ClassUnknown {
			continue
		}

		devices = append(devices, info)
	}

	return devices, nil
}

// Query opens a device node just long enough to read its name and
// capability bitmaps, then classifies it.
func Query(devicePath string) (DeviceInfo, error) {
	fd, err := open(devicePath)
	if err != nil {
		return DeviceInfo{}, err
	}
	defer unix.Close(fd)

	name := deviceName(fd)

	evBits := make([]byte, EV_MAX/8+1)
	if err := ioctl(fd, eviocgbit(0, len(evBits)), unsafe.Pointer(&evBits[0])); err != nil {
		return DeviceInfo{}, fmt.Errorf("failed to query event types: %w", err)
	}

	keyBits := make([]byte, KEY_MAX/8+1)
	if hasBit(evBits, EV_KEY) {
		if err := ioctl(fd, eviocgbit(EV_KEY, len(keyBits)), unsafe.Pointer(&keyBits[0])); err != nil {
			return DeviceInfo{}, fmt.Errorf("failed to query key capabilities: %w", err)
		}
	}

	class := Classify(evBits, keyBits)

	return DeviceInfo{
		DevicePath: devicePath,
		DeviceName: name,
		Class:      class,
	}, nil
}

// Classify determines the device class from its event-type and key-code
// bitmaps. A device counts as a keyboard when it reports ordinary typing
// keys, and as a pointing device when it reports relative motion or a
// touch/button surface.
func Classify(evBits, keyBits []byte) Class {
	if hasBit(evBits, EV_KEY) && hasBit(keyBits, KEY_A) && hasBit(keyBits, KEY_ENTER) {
		return ClassKeyboard
	}

	if hasBit(evBits, EV_REL) {
		return ClassPointing
	}

	if hasBit(evBits, EV_ABS) && (hasBit(keyBits, BTN_TOUCH) || hasBit(keyBits, BTN_LEFT)) {
		return ClassPointing
	}

	return ClassUnknown
}

// Device is an open evdev input device handle.
type Device struct {
	fd   int
	info DeviceInfo
}

// Open opens the device node for non-blocking event reads.
func Open(info DeviceInfo) (*Device, error) {
	fd, err := open(info.DevicePath)
	if err != nil {
		return nil, err
	}
	return &Device{fd: fd, info: info}, nil
}

// Info returns the device metadata captured at discovery time.
func (d *Device) Info() DeviceInfo {
	return d.info
}

// Fd returns the underlying file descriptor for use with epoll.
func (d *Device) Fd() int {
	return d.fd
}

// Drain reads and discards all buffered input events. It returns nil
// once the device buffer is empty. An EOF-like read error means the
// device is gone and is reported so the caller can drop the handle.
func (d *Device) Drain() error {
	buf := make([]byte, 64*eventSize)
	for {
		_, err := unix.Read(d.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return nil
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}
	}
}

// Close releases the device file descriptor.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// deviceName reads the kernel device name via EVIOCGNAME.
func deviceName(fd int) string {
	buf := make([]byte, 256)
	if err := ioctl(fd, eviocgname(len(buf)), unsafe.Pointer(&buf[0])); err != nil {
		return ""
	}
	return cstr(buf)
}

// hasBit reports whether a capability bitmap has the given bit set.
func hasBit(bits []byte, bit uint) bool {
	idx := bit / 8
	if int(idx) >= len(bits) {
		return false
	}
	return bits[idx]&(1<<(bit%8)) != 0
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
