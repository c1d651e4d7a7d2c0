package vcam

import "strconv"

// FourCC is a 32-bit pixel-format tag such as "RGB24", "YUY2" or "NV12".
type FourCC uint32

// FourCCFromString packs a (up to) 4 character tag into a FourCC. A longer
// tag made of three characters and a bit depth below 48, such as "RGB24"
// or "BGR32", packs the depth itself as the fourth byte.
func FourCCFromString(tag string) FourCC {
	if len(tag) > 4 {
		if depth, err := strconv.Atoi(tag[3:]); err == nil && depth > 0 && depth < '0' {
			tag = tag[:3] + string([]byte{byte(depth)})
		}
	}

	var v uint32
	for i := 0; i < 4; i++ {
		v >>= 8
		if i < len(tag) {
			v |= uint32(tag[i]) << 24
		}
	}
	return FourCC(v)
}

// String unpacks the FourCC back into its character form. A fourth byte
// below '0' is a packed bit depth and is rendered in decimal ("RGB24").
func (f FourCC) String() string {
	b := [4]byte{
		byte(f & 0xff),
		byte((f >> 8) & 0xff),
		byte((f >> 16) & 0xff),
		byte((f >> 24) & 0xff),
	}
	if b[3] > 0 && b[3] < '0' {
		return string(b[:3]) + strconv.Itoa(int(b[3]))
	}
	n := 4
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

// VideoFormat describes a pixel format, a resolution and the ordered
// list of frame rates a device offers at that resolution. The first
// entry is always the minimum frame rate: it is the only one the
// preferences store persists. Frame messages on the wire carry the
// fourcc and dimensions only, no frame rate.
type VideoFormat struct {
	FourCC     FourCC
	Width      int
	Height     int
	FrameRates []Fraction
}

// NewVideoFormat builds a format from a fourcc tag, dimensions and a
// nonempty list of frame rates.
func NewVideoFormat(fourcc FourCC, width, height int, frameRates []Fraction) VideoFormat {
	return VideoFormat{
		FourCC:     fourcc,
		Width:      width,
		Height:     height,
		FrameRates: frameRates,
	}
}

// Valid reports whether the format satisfies its basic invariants:
// positive dimensions and at least one frame rate with den >= 1.
func (f VideoFormat) Valid() bool {
	if f.Width <= 0 || f.Height <= 0 || len(f.FrameRates) == 0 {
		return false
	}
	for _, fr := range f.FrameRates {
		if fr.Den < 1 {
			return false
		}
	}
	return true
}

// MinimumFrameRate returns the first (and, by convention, smallest)
// frame rate in the list, or the zero Fraction if the list is empty.
func (f VideoFormat) MinimumFrameRate() Fraction {
	if len(f.FrameRates) == 0 {
		return Fraction{}
	}
	return f.FrameRates[0]
}

// Equal compares two formats structurally on fourcc, width, height and
// minimum frame rate, per the data model's equality rule.
func (f VideoFormat) Equal(other VideoFormat) bool {
	return f.FourCC == other.FourCC &&
		f.Width == other.Width &&
		f.Height == other.Height &&
		f.MinimumFrameRate().Equal(other.MinimumFrameRate())
}

// ByteSize returns the number of bytes a frame in this format must
// carry, assuming a packed 1 byte-per-pixel-component layout scaled by
// the well-known bits-per-pixel of common fourccs. Unknown fourccs are
// assumed to be 2 bytes per pixel (the common YUV 4:2:2 case).
func (f VideoFormat) ByteSize() int {
	bpp := bitsPerPixel(f.FourCC)
	return (f.Width * f.Height * bpp) / 8
}

func bitsPerPixel(fourcc FourCC) int {
	switch fourcc.String() {
	case "RGB24", "BGR24":
		return 24
	case "RGB32", "BGR32", "RGBA", "BGRA":
		return 32
	case "NV12", "NV21", "I420", "YV12":
		return 12
	default:
		return 16
	}
}
