package segy

import "math"

// IBMToFloat32 converts an IBM System/360 hexadecimal single-precision float.
func IBMToFloat32(v uint32) float32 {
	if v&0x7fffffff == 0 {
		return 0
	}
	sign := 1.0
	if v&0x80000000 != 0 {
		sign = -1.0
	}
	exp := int((v>>24)&0x7f) - 64
	frac := float64(v&0x00ffffff) / (1 << 24)
	return float32(sign * frac * math.Pow(16, float64(exp)))
}

// Float32ToIBM converts to the IBM hexadecimal format, truncating the mantissa.
// Values outside the IBM range saturate.
func Float32ToIBM(f float32) uint32 {
	if f == 0 || math.IsNaN(float64(f)) {
		return 0
	}
	var sign uint32
	x := float64(f)
	if x < 0 {
		sign = 0x80000000
		x = -x
	}
	if math.IsInf(x, 1) {
		return sign | 0x7fffffff
	}
	exp := 64
	for x >= 1 {
		x /= 16
		exp++
	}
	for x < 1.0/16 {
		x *= 16
		exp--
	}
	if exp > 127 {
		return sign | 0x7fffffff
	}
	if exp < 0 {
		return 0
	}
	frac := uint32(x * (1 << 24))
	return sign | uint32(exp)<<24 | frac&0x00ffffff
}
