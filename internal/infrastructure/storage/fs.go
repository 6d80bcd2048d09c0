package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"svw.info/puzzle/internal/domain"
	"svw.info/puzzle/internal/seed"
)

// FS reads event definitions from <dir>/<id>.yaml (or .yml). It never
// writes: claims made at runtime live only in memory.
type FS struct{ dir string }

func NewFS(dir string) *FS { return &FS{dir: dir} }

type eventFile struct {
	ID       string      `yaml:"id" validate:"required,max=64"`
	Title    string      `yaml:"title" validate:"max=200"`
	ImageURL string      `yaml:"image_url" validate:"omitempty,url"`
	Rows     int         `yaml:"rows" validate:"min=1"`
	Cols     int         `yaml:"cols" validate:"min=1"`
	Claims   []claimFile `yaml:"claims" validate:"dive"`
}

type claimFile struct {
	Piece int       `yaml:"piece" validate:"min=1"`
	User  userFile  `yaml:"user"`
	At    time.Time `yaml:"at"`
}

type userFile struct {
	ID          int64  `yaml:"id" validate:"min=1"`
	DisplayName string `yaml:"display_name" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseEvent decodes and validates one event definition.
func ParseEvent(r io.Reader) (*domain.Event, error) {
	var f eventFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("event %q: %w", f.ID, err)
	}
	if f.Rows > seed.MaxSide || f.Cols > seed.MaxSide {
		return nil, fmt.Errorf("event %q: grid %dx%d: %w", f.ID, f.Rows, f.Cols, domain.ErrInvalidGrid)
	}
	ev := &domain.Event{
		ID:       strings.TrimSpace(f.ID),
		Title:    f.Title,
		ImageURL: f.ImageURL,
		Rows:     f.Rows,
		Cols:     f.Cols,
	}
	for _, c := range f.Claims {
		ev.Claims = append(ev.Claims, domain.Claim{
			PieceID: c.Piece,
			User:    domain.User{ID: c.User.ID, DisplayName: c.User.DisplayName},
			At:      c.At,
		})
	}
	return ev, nil
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

func (s *FS) Load(ctx context.Context, id string) (*domain.Event, error) {
	id = strings.TrimSpace(id)
	if !validID(id) {
		return nil, fmt.Errorf("event %q: %w", id, domain.ErrNotFound)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		f, err := os.Open(filepath.Join(s.dir, id+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ev, err := ParseEvent(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		if ev.ID != id {
			return nil, fmt.Errorf("event file %s%s declares id %q", id, ext, ev.ID)
		}
		return ev, nil
	}
	return nil, fmt.Errorf("event %q: %w", id, domain.ErrNotFound)
}

func (s *FS) List(ctx context.Context) ([]domain.EventMeta, error) {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []domain.EventMeta
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		f, err := os.Open(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		ev, err := ParseEvent(f)
		f.Close()
		if err != nil {
			continue // skip broken definitions in listings
		}
		out = append(out, domain.EventMeta{ID: ev.ID, Title: ev.Title, Rows: ev.Rows, Cols: ev.Cols})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
