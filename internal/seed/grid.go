package seed

import (
	"context"
	"fmt"
	"time"

	"svw.info/puzzle/internal/domain"
)

// MaxSide bounds rows and columns of a seeded grid.
const MaxSide = 64

// GridSeeder builds an event's piece set: row-major pieces with ids
// 1..rows*cols, pre-seeded claims applied.
type GridSeeder struct {
	now func() time.Time
}

// NewGridSeeder wires a seeder; now stamps claims that carry no time.
func NewGridSeeder(now func() time.Time) *GridSeeder {
	if now == nil {
		now = time.Now
	}
	return &GridSeeder{now: now}
}

func (g *GridSeeder) Seed(ctx context.Context, ev *domain.Event) (*domain.PuzzleData, error) {
	if ev == nil {
		return nil, fmt.Errorf("nil event: %w", domain.ErrInvalidGrid)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	claims := make([]domain.Claim, len(ev.Claims))
	copy(claims, ev.Claims)
	for i := range claims {
		if claims[i].At.IsZero() {
			claims[i].At = g.now()
		}
	}
	d, err := Grid(ev.Rows, ev.Cols, claims)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", ev.ID, err)
	}
	return d, nil
}

// Grid lays out a rows×cols piece set and applies claims to it.
func Grid(rows, cols int, claims []domain.Claim) (*domain.PuzzleData, error) {
	if rows < 1 || cols < 1 || rows > MaxSide || cols > MaxSide {
		return nil, fmt.Errorf("grid %dx%d: %w", rows, cols, domain.ErrInvalidGrid)
	}
	pieces := make([]domain.Puzzle, 0, rows*cols)
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			pieces = append(pieces, domain.Puzzle{PieceID: pieceID(r, c, cols), Row: r, Column: c})
		}
	}
	seen := make(map[int]bool, len(claims))
	for _, cl := range claims {
		if cl.PieceID < 1 || cl.PieceID > len(pieces) {
			return nil, fmt.Errorf("claim on piece %d outside 1..%d: %w", cl.PieceID, len(pieces), domain.ErrInvalidGrid)
		}
		if seen[cl.PieceID] {
			return nil, fmt.Errorf("piece %d claimed twice: %w", cl.PieceID, domain.ErrInvalidGrid)
		}
		if cl.At.IsZero() {
			return nil, fmt.Errorf("claim on piece %d has no time: %w", cl.PieceID, domain.ErrInvalidGrid)
		}
		seen[cl.PieceID] = true
		u, at := cl.User, cl.At
		p := &pieces[cl.PieceID-1]
		p.FilledBy, p.FilledAt = &u, &at
	}
	return domain.NewPuzzleData(rows, cols, pieces), nil
}

func pieceID(row, col, cols int) int { return (row-1)*cols + col }
