// Package store owns the state of one puzzle event and publishes it.
//
// A Store holds two streams: the current PuzzleData snapshot (nil until
// Initialize) and the current source image (the placeholder until the
// background load resolves). A single owner goroutine applies image load
// results, claims and reloads, so every publication after Initialize happens
// on that goroutine and claims on the same piece are serialised.
package store

import (
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"svw.info/puzzle/internal/domain"
	"svw.info/puzzle/internal/metrics"
	"svw.info/puzzle/internal/observable"
	"svw.info/puzzle/internal/ports"
)

type state int

const (
	stateIdle state = iota
	stateRunning
	stateClosed
)

type Options struct {
	// EventID selects the event to load; empty means the source's default.
	EventID string
	// ImageURL overrides the event's image URL when set.
	ImageURL    string
	Placeholder image.Image
	Now         func() time.Time
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

type Store struct {
	events    ports.EventSource
	seeder    ports.Seeder
	validator ports.Validator
	loader    ports.ImageLoader

	placeholder image.Image
	eventID     string
	imageURL    string
	now         func() time.Time
	logger      *zap.Logger
	metrics     *metrics.Metrics

	data      *observable.Value[*domain.PuzzleData]
	image     *observable.Value[image.Image]
	imgSource atomic.Int32

	mu     sync.Mutex
	state  state
	event  *domain.Event
	ctx    context.Context
	cancel context.CancelFunc

	cmds   chan any
	loaded chan loadResult
	done   chan struct{}
	loads  sync.WaitGroup
}

type loadResult struct {
	gen int
	img image.Image
}

type claimCmd struct {
	pieceID int
	user    domain.User
	reply   chan claimResult
}

type claimResult struct {
	data *domain.PuzzleData
	err  error
}

type reloadCmd struct {
	url   string
	reply chan struct{}
}

func New(events ports.EventSource, seeder ports.Seeder, v ports.Validator, loader ports.ImageLoader, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Placeholder == nil {
		opts.Placeholder = image.NewGray(image.Rect(0, 0, 1, 1))
	}
	return &Store{
		events:      events,
		seeder:      seeder,
		validator:   v,
		loader:      loader,
		placeholder: opts.Placeholder,
		eventID:     opts.EventID,
		imageURL:    opts.ImageURL,
		now:         opts.Now,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		data:        observable.New[*domain.PuzzleData](nil),
		image:       observable.New(opts.Placeholder),
		cmds:        make(chan any),
		loaded:      make(chan loadResult),
		done:        make(chan struct{}),
	}
}

// PuzzleData is the snapshot stream. Every value is immutable.
func (s *Store) PuzzleData() *observable.Value[*domain.PuzzleData] { return s.data }

// Image is the source image stream. It starts at the placeholder.
func (s *Store) Image() *observable.Value[image.Image] { return s.image }

// ImageSource reports whether the current image is the placeholder.
func (s *Store) ImageSource() domain.ImageSource { return domain.ImageSource(s.imgSource.Load()) }

// Placeholder is the image published while no remote image is available.
func (s *Store) Placeholder() image.Image { return s.placeholder }

// Event returns the loaded event definition, or nil before Initialize.
func (s *Store) Event() *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event == nil {
		return nil
	}
	ev := *s.event
	ev.Claims = append([]domain.Claim(nil), s.event.Claims...)
	return &ev
}

// Initialize seeds the event's pieces, publishes the first snapshot and
// starts loading the source image in the background. A piece set that
// violates the grid invariants aborts initialization and nothing is
// published.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateRunning:
		return domain.ErrAlreadyInitialized
	case stateClosed:
		return domain.ErrClosed
	}

	ev, err := s.events.Load(ctx, s.eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	data, err := s.seeder.Seed(ctx, ev)
	if err != nil {
		return fmt.Errorf("seed event %q: %w", ev.ID, err)
	}
	ok, violations, err := s.validator.Validate(ctx, data)
	if err != nil {
		return fmt.Errorf("validate event %q: %w", ev.ID, err)
	}
	if !ok {
		return fmt.Errorf("event %q: %w: %v", ev.ID, domain.ErrInvalidGrid, violations)
	}

	url := s.imageURL
	if url == "" {
		url = ev.ImageURL
	}
	s.event = ev
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.state = stateRunning

	s.data.Set(data)
	s.metrics.Progress(data.FilledCount, data.TotalPieces)
	s.logger.Info("puzzle initialized",
		zap.String("event", ev.ID),
		zap.Int("rows", data.Rows),
		zap.Int("cols", data.Cols),
		zap.Int("filled", data.FilledCount),
		zap.Int("total", data.TotalPieces))

	go s.run(url)
	return nil
}

func (s *Store) run(url string) {
	defer close(s.done)
	gen := 0
	cancelLoad := func() {}
	startLoad := func(url string) {
		cancelLoad()
		gen++
		var lctx context.Context
		lctx, cancelLoad = context.WithCancel(s.ctx)
		s.loads.Add(1)
		go s.load(lctx, gen, url)
	}
	startLoad(url)

	for {
		select {
		case <-s.ctx.Done():
			cancelLoad()
			return
		case res := <-s.loaded:
			if res.gen != gen || s.ctx.Err() != nil {
				continue
			}
			s.applyImage(res.img)
		case cmd := <-s.cmds:
			switch c := cmd.(type) {
			case claimCmd:
				c.reply <- s.applyClaim(c.pieceID, c.user)
			case reloadCmd:
				if c.url == "" {
					c.url = url
				}
				url = c.url
				startLoad(url)
				close(c.reply)
			}
		}
	}
}

func (s *Store) load(ctx context.Context, gen int, url string) {
	defer s.loads.Done()
	img := s.loader.Load(ctx, url, s.placeholder)
	select {
	case s.loaded <- loadResult{gen: gen, img: img}:
	case <-ctx.Done():
		s.logger.Debug("image load abandoned", zap.String("url", url))
	}
}

func (s *Store) applyImage(img image.Image) {
	if img == nil || sameImage(img, s.placeholder) {
		s.logger.Info("keeping placeholder image")
		return
	}
	s.imgSource.Store(int32(domain.SourceRemote))
	s.image.Set(img)
}

func (s *Store) applyClaim(pieceID int, u domain.User) claimResult {
	cur := s.data.Get()
	next, err := cur.WithClaim(pieceID, u, s.now())
	if err != nil {
		s.metrics.Claim(claimLabel(err))
		return claimResult{err: err}
	}
	s.data.Set(next)
	s.metrics.Claim(metrics.ClaimOK)
	s.metrics.Progress(next.FilledCount, next.TotalPieces)
	s.logger.Info("piece claimed",
		zap.Int("piece", pieceID),
		zap.Int64("user", u.ID),
		zap.Int("filled", next.FilledCount),
		zap.Int("total", next.TotalPieces))
	return claimResult{data: next}
}

// Claim fills pieceID for u and publishes the new snapshot. It fails with
// ErrNotFound for unknown pieces and ErrAlreadyClaimed for filled ones.
func (s *Store) Claim(ctx context.Context, pieceID int, u domain.User) (*domain.PuzzleData, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	reply := make(chan claimResult, 1)
	if err := s.send(ctx, claimCmd{pieceID: pieceID, user: u, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case r := <-reply:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reload starts a new image load, abandoning any load in flight. An empty
// url reuses the last one. The current image stays published until the new
// load resolves to a real image.
func (s *Store) Reload(ctx context.Context, url string) error {
	if err := s.ready(); err != nil {
		return err
	}
	reply := make(chan struct{})
	if err := s.send(ctx, reloadCmd{url: url, reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateIdle:
		return domain.ErrNotInitialized
	case stateClosed:
		return domain.ErrClosed
	}
	return nil
}

func (s *Store) send(ctx context.Context, cmd any) error {
	select {
	case s.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrClosed
	}
}

// Close tears the store down. A load still in flight is abandoned and its
// result never published. Subscriber channels are closed.
func (s *Store) Close() {
	s.mu.Lock()
	prev := s.state
	s.state = stateClosed
	s.mu.Unlock()
	if prev == stateClosed {
		return
	}
	if prev == stateRunning {
		s.cancel()
		<-s.done
		s.loads.Wait()
	}
	s.data.Close()
	s.image.Close()
	s.logger.Info("puzzle store closed")
}

func claimLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ClaimNotFound
	case errors.Is(err, domain.ErrAlreadyClaimed):
		return metrics.ClaimAlreadyClaimed
	default:
		return metrics.ClaimRejected
	}
}

// sameImage compares images by identity without panicking on
// non-comparable dynamic types.
func sameImage(a, b image.Image) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
