package validator

import (
	"context"
	"fmt"

	"svw.info/puzzle/internal/domain"
)

// GridValidator checks that a piece set covers its rows×cols grid exactly
// and that claim fields and counters are consistent.
type GridValidator struct{}

func New() *GridValidator { return &GridValidator{} }

func (v *GridValidator) Validate(ctx context.Context, d *domain.PuzzleData) (bool, []domain.Violation, error) {
	if d == nil {
		return false, []domain.Violation{{Reason: "no puzzle data"}}, nil
	}
	out := make([]domain.Violation, 0, 4)
	if d.Rows < 1 || d.Cols < 1 {
		out = append(out, domain.Violation{Reason: fmt.Sprintf("grid %dx%d has no cells", d.Rows, d.Cols)})
		return false, out, nil
	}

	ids := make(map[int]bool, len(d.Puzzles))
	cells := make([][]bool, d.Rows)
	for r := range cells {
		cells[r] = make([]bool, d.Cols)
	}
	filled := 0
	for _, p := range d.Puzzles {
		bad := func(reason string) {
			out = append(out, domain.Violation{PieceID: p.PieceID, Row: p.Row, Column: p.Column, Reason: reason})
		}
		// id
		if p.PieceID < 1 {
			bad("piece id must be positive")
		} else if ids[p.PieceID] {
			bad("duplicate piece id")
		}
		ids[p.PieceID] = true
		// cell
		if p.Row < 1 || p.Row > d.Rows || p.Column < 1 || p.Column > d.Cols {
			bad("cell outside grid")
		} else if cells[p.Row-1][p.Column-1] {
			bad("duplicate cell")
		} else {
			cells[p.Row-1][p.Column-1] = true
		}
		// claim
		if (p.FilledBy == nil) != (p.FilledAt == nil) {
			bad("filledBy and filledAt must be set together")
		}
		if p.FilledBy != nil {
			filled++
		}
	}
	for r := range cells {
		for c, ok := range cells[r] {
			if !ok {
				out = append(out, domain.Violation{Row: r + 1, Column: c + 1, Reason: "missing cell"})
			}
		}
	}
	if d.TotalPieces != len(d.Puzzles) {
		out = append(out, domain.Violation{Reason: fmt.Sprintf("totalPieces %d != %d pieces", d.TotalPieces, len(d.Puzzles))})
	}
	if d.FilledCount != filled {
		out = append(out, domain.Violation{Reason: fmt.Sprintf("filledCount %d != %d filled pieces", d.FilledCount, filled)})
	}
	return len(out) == 0, out, nil
}
