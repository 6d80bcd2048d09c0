package domain

import (
	"fmt"
	"time"
)

// User identifies a claimant. It is supplied by the caller and never
// interpreted beyond equality.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
}

// Puzzle is one piece of the grid. FilledBy and FilledAt are either both set
// or both nil.
type Puzzle struct {
	PieceID  int        `json:"pieceId"`
	Row      int        `json:"row"`
	Column   int        `json:"column"`
	FilledBy *User      `json:"filledBy,omitempty"`
	FilledAt *time.Time `json:"filledAt,omitempty"`
}

// Filled reports whether the piece has been claimed.
func (p Puzzle) Filled() bool { return p.FilledBy != nil }

func (p Puzzle) clone() Puzzle {
	out := p
	if p.FilledBy != nil {
		u := *p.FilledBy
		out.FilledBy = &u
	}
	if p.FilledAt != nil {
		t := *p.FilledAt
		out.FilledAt = &t
	}
	return out
}

// PuzzleData is an immutable snapshot of an event's pieces. TotalPieces and
// FilledCount are derived from Puzzles; build values with NewPuzzleData or
// WithClaim so they cannot drift.
type PuzzleData struct {
	Rows        int      `json:"rows"`
	Cols        int      `json:"cols"`
	Puzzles     []Puzzle `json:"puzzles"`
	TotalPieces int      `json:"totalPieces"`
	FilledCount int      `json:"filledCount"`
}

// NewPuzzleData deep-copies pieces into a new snapshot and derives its counters.
func NewPuzzleData(rows, cols int, pieces []Puzzle) *PuzzleData {
	d := &PuzzleData{Rows: rows, Cols: cols, Puzzles: make([]Puzzle, len(pieces))}
	for i, p := range pieces {
		d.Puzzles[i] = p.clone()
		if p.Filled() {
			d.FilledCount++
		}
	}
	d.TotalPieces = len(d.Puzzles)
	return d
}

// Piece looks up a piece by id.
func (d *PuzzleData) Piece(id int) (Puzzle, bool) {
	if d == nil {
		return Puzzle{}, false
	}
	for _, p := range d.Puzzles {
		if p.PieceID == id {
			return p.clone(), true
		}
	}
	return Puzzle{}, false
}

// WithClaim returns a new snapshot where pieceID is filled by u at the given
// time. The receiver is left untouched.
func (d *PuzzleData) WithClaim(pieceID int, u User, at time.Time) (*PuzzleData, error) {
	idx := -1
	for i, p := range d.Puzzles {
		if p.PieceID == pieceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("piece %d: %w", pieceID, ErrNotFound)
	}
	if d.Puzzles[idx].Filled() {
		return nil, fmt.Errorf("piece %d: %w", pieceID, ErrAlreadyClaimed)
	}
	next := NewPuzzleData(d.Rows, d.Cols, d.Puzzles)
	next.Puzzles[idx].FilledBy = &u
	next.Puzzles[idx].FilledAt = &at
	next.FilledCount++
	return next, nil
}

// Progress is the filled fraction in [0, 1].
func (d *PuzzleData) Progress() float64 {
	if d == nil || d.TotalPieces == 0 {
		return 0
	}
	return float64(d.FilledCount) / float64(d.TotalPieces)
}

// Claim is a pre-seeded claim on a piece of an event.
type Claim struct {
	PieceID int       `json:"pieceId"`
	User    User      `json:"user"`
	At      time.Time `json:"at"`
}

// Event is one puzzle event: a fixed grid over one source image.
type Event struct {
	ID       string  `json:"id"`
	Title    string  `json:"title,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Rows     int     `json:"rows"`
	Cols     int     `json:"cols"`
	Claims   []Claim `json:"claims,omitempty"`
}

// EventMeta is a lightweight listing entry.
type EventMeta struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
}

// Violation describes one broken invariant of a piece set.
type Violation struct {
	PieceID int    `json:"pieceId,omitempty"`
	Row     int    `json:"row,omitempty"`
	Column  int    `json:"column,omitempty"`
	Reason  string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("piece %d (%d,%d): %s", v.PieceID, v.Row, v.Column, v.Reason)
}

// Contributor is a ranking entry for one user.
type Contributor struct {
	User         User      `json:"user"`
	Pieces       int       `json:"pieces"`
	FirstClaimAt time.Time `json:"firstClaimAt"`
}
