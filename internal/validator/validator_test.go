package validator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svw.info/puzzle/internal/domain"
)

func grid(rows, cols int) []domain.Puzzle {
	out := make([]domain.Puzzle, 0, rows*cols)
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			out = append(out, domain.Puzzle{PieceID: (r-1)*cols + c, Row: r, Column: c})
		}
	}
	return out
}

func reasons(vs []domain.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Reason
	}
	return out
}

func TestValidGrid(t *testing.T) {
	at := time.Now()
	pieces := grid(3, 3)
	pieces[2].FilledBy, pieces[2].FilledAt = &domain.User{ID: 1}, &at
	ok, vs, err := New().Validate(context.Background(), domain.NewPuzzleData(3, 3, pieces))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, vs)
}

func TestMissingAndDuplicateCells(t *testing.T) {
	pieces := grid(2, 2)
	pieces[3].Row, pieces[3].Column = 1, 1 // (2,2) missing, (1,1) twice
	ok, vs, err := New().Validate(context.Background(), domain.NewPuzzleData(2, 2, pieces))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"duplicate cell", "missing cell"}, reasons(vs))
}

func TestCellOutsideGridAndDuplicateID(t *testing.T) {
	pieces := grid(2, 2)
	pieces[1].PieceID = 1
	pieces[3].Column = 3
	ok, vs, err := New().Validate(context.Background(), domain.NewPuzzleData(2, 2, pieces))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reasons(vs), "duplicate piece id")
	assert.Contains(t, reasons(vs), "cell outside grid")
}

func TestHalfClaimedPiece(t *testing.T) {
	pieces := grid(1, 2)
	pieces[0].FilledBy = &domain.User{ID: 1}
	ok, vs, err := New().Validate(context.Background(), domain.NewPuzzleData(1, 2, pieces))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reasons(vs), "filledBy and filledAt must be set together")
}

func TestDriftedCounters(t *testing.T) {
	d := domain.NewPuzzleData(2, 2, grid(2, 2))
	d.FilledCount = 3
	d.TotalPieces = 5
	ok, vs, err := New().Validate(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, vs, 2)
}

func TestNilAndEmptyGrid(t *testing.T) {
	ok, _, err := New().Validate(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _, err = New().Validate(context.Background(), domain.NewPuzzleData(0, 3, nil))
	require.NoError(t, err)
	assert.False(t, ok)
}
