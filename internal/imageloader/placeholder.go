package imageloader

import (
	"image"
	"image/color"
	"image/draw"
)

const DefaultPlaceholderSize = 100

// PlaceholderGray is the neutral fill of the placeholder raster.
var PlaceholderGray = color.Gray{Y: 0x88}

// NewPlaceholder returns a w×h uniform gray image. Non-positive sizes fall
// back to DefaultPlaceholderSize.
func NewPlaceholder(w, h int) *image.Gray {
	if w <= 0 {
		w = DefaultPlaceholderSize
	}
	if h <= 0 {
		h = DefaultPlaceholderSize
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(PlaceholderGray), image.Point{}, draw.Src)
	return img
}
