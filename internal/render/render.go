// Package render turns a snapshot and the current source image into pictures
// of the grid. Filled pieces show their crop, the others a blank block.
// Crops are recomputed from the image passed on every call.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"runtime"

	"golang.org/x/sync/errgroup"

	"svw.info/puzzle/internal/domain"
	"svw.info/puzzle/internal/partition"
	"svw.info/puzzle/internal/ports"
)

type Options struct {
	// Gap is the border in pixels around and between cells.
	Gap        int
	Blank      color.Color
	Background color.Color
}

func DefaultOptions() Options {
	return Options{
		Gap:        2,
		Blank:      color.Gray{Y: 0xD3},
		Background: color.White,
	}
}

type Renderer struct {
	part ports.Partitioner
	opts Options
}

func New(p ports.Partitioner, opts Options) *Renderer {
	if p == nil {
		p = partition.New()
	}
	if opts.Blank == nil {
		opts.Blank = DefaultOptions().Blank
	}
	if opts.Background == nil {
		opts.Background = DefaultOptions().Background
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	return &Renderer{part: p, opts: opts}
}

// Compose draws every piece of d into one image.
func (r *Renderer) Compose(ctx context.Context, d *domain.PuzzleData, img image.Image) (*image.RGBA, error) {
	if d == nil {
		return nil, fmt.Errorf("compose: %w", domain.ErrNotInitialized)
	}
	cell, err := partition.PieceSize(img.Bounds(), d.Rows, d.Cols)
	if err != nil {
		return nil, err
	}
	gap := r.opts.Gap
	out := image.NewRGBA(image.Rect(0, 0, d.Cols*(cell.X+gap)+gap, d.Rows*(cell.Y+gap)+gap))
	draw.Draw(out, out.Bounds(), image.NewUniform(r.opts.Background), image.Point{}, draw.Src)

	// each piece writes a disjoint rectangle of out
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range d.Puzzles {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			x := gap + (p.Column-1)*(cell.X+gap)
			y := gap + (p.Row-1)*(cell.Y+gap)
			dst := image.Rect(x, y, x+cell.X, y+cell.Y)
			if !p.Filled() {
				draw.Draw(out, dst, image.NewUniform(r.opts.Blank), image.Point{}, draw.Src)
				return nil
			}
			piece, err := r.part.Crop(img, p.Row, p.Column, d.Rows, d.Cols)
			if err != nil {
				return fmt.Errorf("piece %d: %w", p.PieceID, err)
			}
			draw.Draw(out, dst, piece, piece.Bounds().Min, draw.Src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Piece renders a single piece: its crop when filled, a blank block of the
// same size otherwise.
func (r *Renderer) Piece(d *domain.PuzzleData, img image.Image, pieceID int) (image.Image, error) {
	if d == nil {
		return nil, fmt.Errorf("piece %d: %w", pieceID, domain.ErrNotInitialized)
	}
	p, ok := d.Piece(pieceID)
	if !ok {
		return nil, fmt.Errorf("piece %d: %w", pieceID, domain.ErrNotFound)
	}
	crop, err := r.part.Crop(img, p.Row, p.Column, d.Rows, d.Cols)
	if err != nil {
		return nil, err
	}
	if p.Filled() {
		return crop, nil
	}
	blank := image.NewRGBA(image.Rectangle{Max: crop.Bounds().Size()})
	draw.Draw(blank, blank.Bounds(), image.NewUniform(r.opts.Blank), image.Point{}, draw.Src)
	return blank, nil
}
