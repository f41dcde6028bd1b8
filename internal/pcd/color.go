package pcd

import "math"

// EncodeRGB packs 8-bit colour triples as 0x00RRGGBB.
func EncodeRGB(rgb [][3]uint8) []uint32 {
	out := make([]uint32, len(rgb))
	for i, c := range rgb {
		out[i] = uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2])
	}
	return out
}

// DecodeRGB unpacks 0x00RRGGBB values. The top byte is ignored.
func DecodeRGB(packed []uint32) [][3]uint8 {
	out := make([][3]uint8, len(packed))
	for i, v := range packed {
		out[i] = [3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)}
	}
	return out
}

// PackRGBFloat reinterprets packed colours as float32, the layout PCL uses
// for an "rgb" field declared F 4.
func PackRGBFloat(packed []uint32) []float32 {
	out := make([]float32, len(packed))
	for i, v := range packed {
		out[i] = math.Float32frombits(v)
	}
	return out
}

// UnpackRGBFloat is the inverse of PackRGBFloat.
func UnpackRGBFloat(f []float32) []uint32 {
	out := make([]uint32, len(f))
	for i, v := range f {
		out[i] = math.Float32bits(v)
	}
	return out
}
