package partition

import (
	"fmt"
	"image"
	"image/draw"

	"svw.info/puzzle/internal/domain"
)

// Partitioner slices images into equal row/column pieces.
// Piece sizes are floored, so up to cols-1 pixels on the right and rows-1
// pixels at the bottom belong to no piece.
type Partitioner struct{}

func New() *Partitioner { return &Partitioner{} }

func (p *Partitioner) Crop(img image.Image, row, col, totalRows, totalCols int) (image.Image, error) {
	return Crop(img, row, col, totalRows, totalCols)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Rect returns the rectangle of piece (row, col), both 1-based, within bounds.
func Rect(bounds image.Rectangle, row, col, totalRows, totalCols int) (image.Rectangle, error) {
	if totalRows < 1 || totalCols < 1 {
		return image.Rectangle{}, fmt.Errorf("grid %dx%d: %w", totalRows, totalCols, domain.ErrOutOfBounds)
	}
	if row < 1 || row > totalRows || col < 1 || col > totalCols {
		return image.Rectangle{}, fmt.Errorf("row %d col %d outside %dx%d: %w", row, col, totalRows, totalCols, domain.ErrOutOfBounds)
	}
	w, h := bounds.Dx(), bounds.Dy()
	pw, ph := w/totalCols, h/totalRows
	if pw == 0 || ph == 0 {
		return image.Rectangle{}, fmt.Errorf("image %dx%d too small for %dx%d grid: %w", w, h, totalRows, totalCols, domain.ErrOutOfBounds)
	}
	x := bounds.Min.X + (col-1)*pw
	y := bounds.Min.Y + (row-1)*ph
	return image.Rect(x, y, x+pw, y+ph), nil
}

// Crop returns the piece at (row, col). The result keeps the source
// coordinate space and may share pixels with img; callers must treat it as
// read-only.
func Crop(img image.Image, row, col, totalRows, totalCols int) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image: %w", domain.ErrOutOfBounds)
	}
	r, err := Rect(img.Bounds(), row, col, totalRows, totalCols)
	if err != nil {
		return nil, err
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(r), nil
	}
	out := image.NewRGBA(r)
	draw.Draw(out, r, img, r.Min, draw.Src)
	return out, nil
}

// PieceSize is the floored width and height of one piece.
func PieceSize(bounds image.Rectangle, totalRows, totalCols int) (image.Point, error) {
	r, err := Rect(bounds, 1, 1, totalRows, totalCols)
	if err != nil {
		return image.Point{}, err
	}
	return r.Size(), nil
}
