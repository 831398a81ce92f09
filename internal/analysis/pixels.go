package analysis

import (
	"image"
	"image/color"
	"math"
)

// toGray converts an image to 8-bit grayscale.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// rgb8 returns the 8-bit RGB components of a pixel.
func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

// isSkin applies a simple RGB skin-tone rule.
func isSkin(r, g, b uint8) bool {
	if r <= 95 || g <= 40 || b <= 20 {
		return false
	}
	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}
	if int(max)-int(min) <= 15 {
		return false
	}
	diff := int(r) - int(g)
	if diff < 0 {
		diff = -diff
	}
	return diff > 15 && r > g && r > b
}

// rgbToHSV converts 8-bit RGB to hue [0,360), saturation [0,1], value [0,1].
func rgbToHSV(r, g, b uint8) (float64, float64, float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	v := max
	d := max - min
	var s float64
	if max > 0 {
		s = d / max
	}
	var h float64
	if d > 0 {
		switch max {
		case rf:
			h = math.Mod((gf-bf)/d, 6)
		case gf:
			h = (bf-rf)/d + 2
		default:
			h = (rf-gf)/d + 4
		}
		h *= 60
		if h < 0 {
			h += 360
		}
	}
	return h, s, v
}

// skinFraction returns the fraction of skin-tone pixels in the given rows
// of the image, where top and bottom are fractions of the height.
func skinFraction(img image.Image, top, bottom float64) float64 {
	b := img.Bounds()
	y0 := b.Min.Y + int(float64(b.Dy())*top)
	y1 := b.Min.Y + int(float64(b.Dy())*bottom)
	total, skin := 0, 0
	for y := y0; y < y1; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			total++
			if isSkin(rgb8(img.At(x, y))) {
				skin++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(skin) / float64(total)
}
