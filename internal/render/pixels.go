package render

import "image/color"

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black. Values past
// the end of the palette use its last entry.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		for i := range cells {
			base := i * 4
			buf[base+0] = 0
			buf[base+1] = 0
			buf[base+2] = 0
			buf[base+3] = 0
		}
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// fillFlowRGBA tints cells whose flow mask is non-zero and leaves the rest
// transparent. Pixels are written premultiplied, as ebiten images expect.
func fillFlowRGBA(buf []byte, flow []uint8, tint color.RGBA) {
	r := premultiply(tint.R, tint.A)
	g := premultiply(tint.G, tint.A)
	b := premultiply(tint.B, tint.A)
	for i, f := range flow {
		base := i * 4
		if f == 0 {
			buf[base+0] = 0
			buf[base+1] = 0
			buf[base+2] = 0
			buf[base+3] = 0
			continue
		}
		buf[base+0] = r
		buf[base+1] = g
		buf[base+2] = b
		buf[base+3] = tint.A
	}
}

func premultiply(c, a uint8) uint8 {
	return uint8((uint16(c)*uint16(a) + 127) / 255)
}
