package compositor

import (
	"image"
	"image/color"
	"image/draw"
)

func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// mirrorH flips an image horizontally in place.
func mirrorH(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()*4]
		for l, r := 0, b.Dx()-1; l < r; l, r = l+1, r-1 {
			lp := row[l*4 : l*4+4]
			rp := row[r*4 : r*4+4]
			lp[0], rp[0] = rp[0], lp[0]
			lp[1], rp[1] = rp[1], lp[1]
			lp[2], rp[2] = rp[2], lp[2]
			lp[3], rp[3] = rp[3], lp[3]
		}
	}
}

// drawStroke paints a polyline as stamped square dots along each
// segment. Opaque, no anti-aliasing: annotation strokes keep hard edges
// at any output scale.
func drawStroke(dst *image.RGBA, points []image.Point, c color.Color, width int) {
	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		stamp(dst, points[0], c, width)
		return
	}
	for i := 1; i < len(points); i++ {
		drawThickLine(dst, points[i-1], points[i], c, width)
	}
}

// drawThickLine stamps along the segment using integer Bresenham
// stepping.
func drawThickLine(dst *image.RGBA, p0, p1 image.Point, c color.Color, width int) {
	dx := abs(p1.X - p0.X)
	dy := abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	err := dx - dy

	x, y := p0.X, p0.Y
	for {
		stamp(dst, image.Point{X: x, Y: y}, c, width)
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

func stamp(dst *image.RGBA, p image.Point, c color.Color, width int) {
	half := width / 2
	r := image.Rect(p.X-half, p.Y-half, p.X-half+width, p.Y-half+width).
		Intersect(dst.Bounds())
	if !r.Empty() {
		fillRect(dst, r, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
