package ec

// MapFunc converts a brightness percent in [0,100] to a raw register
// value. Whether the controller's register scale is linear is hardware
// specific, so the mapping is a pluggable pure function rather than an
// assumption baked into the protocol code.
type MapFunc func(percent int) byte

// UnmapFunc is the inverse of a MapFunc, used to report the current
// level when reading the register back.
type UnmapFunc func(raw byte) int

// LinearMap scales percent linearly onto the 0..255 register range.
func LinearMap(percent int) byte {
	percent = clampPercent(percent)
	return byte(percent * 255 / 100)
}

// LinearUnmap converts a raw 0..255 register value back to percent,
// rounding to the nearest percent so LinearUnmap(LinearMap(p)) == p.
func LinearUnmap(raw byte) int {
	return (int(raw)*100 + 127) / 255
}
