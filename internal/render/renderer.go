//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads palette-indexed cell data into a single RGBA image.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte

	flowImg *ebiten.Image
	flowBuf []byte
}

// NewGridPainter allocates a painter for a grid of size w*h.
func NewGridPainter(w, h int) *GridPainter {
	gp := &GridPainter{w: w, h: h, buf: make([]byte, 4*w*h)}
	gp.img = ebiten.NewImage(w, h)
	return gp
}

// Blit uploads the provided cells into the painter image and draws it scaled.
func (gp *GridPainter) Blit(dst *ebiten.Image, cells []uint8, palette []color.RGBA, scale int) {
	if len(cells) != gp.w*gp.h {
		return
	}
	fillPaletteRGBA(gp.buf, cells, palette)
	gp.img.WritePixels(gp.buf)
	gp.draw(dst, gp.img, scale)
}

// BlitFlow tints every cell that moved liquid on the last tick.
func (gp *GridPainter) BlitFlow(dst *ebiten.Image, flow []uint8, tint color.RGBA, scale int) {
	if len(flow) != gp.w*gp.h {
		return
	}
	if gp.flowImg == nil {
		gp.flowImg = ebiten.NewImage(gp.w, gp.h)
		gp.flowBuf = make([]byte, 4*gp.w*gp.h)
	}
	fillFlowRGBA(gp.flowBuf, flow, tint)
	gp.flowImg.WritePixels(gp.flowBuf)
	gp.draw(dst, gp.flowImg, scale)
}

func (gp *GridPainter) draw(dst, img *ebiten.Image, scale int) {
	if scale <= 0 {
		scale = 1
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(img, op)
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }
