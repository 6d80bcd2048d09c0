// Package imageloader fetches and decodes the puzzle's source image.
//
// Load never fails: any problem (missing URL, transport error, bad status,
// oversized or undecodable body, timeout, cancellation) yields the caller's
// placeholder. There is exactly one attempt per call and no caching.
package imageloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"svw.info/puzzle/internal/domain"
	"svw.info/puzzle/internal/metrics"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 20 << 20
)

// HTTPClient allows injecting a fake transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Loader struct {
	client   HTTPClient
	timeout  time.Duration
	maxBytes int64
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type Option func(*Loader)

func WithClient(c HTTPClient) Option { return func(l *Loader) { l.client = c } }

// WithTimeout bounds a single fetch+decode. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(l *Loader) { l.timeout = d } }

func WithMaxBytes(n int64) Option { return func(l *Loader) { l.maxBytes = n } }

func WithLogger(lg *zap.Logger) Option { return func(l *Loader) { l.logger = lg } }

func WithMetrics(m *metrics.Metrics) Option { return func(l *Loader) { l.metrics = m } }

func New(opts ...Option) *Loader {
	l := &Loader{
		client:   http.DefaultClient,
		timeout:  DefaultTimeout,
		maxBytes: DefaultMaxBytes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves url to a decoded image, or returns placeholder.
func (l *Loader) Load(ctx context.Context, url string, placeholder image.Image) image.Image {
	url = strings.TrimSpace(url)
	if url == "" {
		l.metrics.ImageLoad(metrics.LoadSkipped)
		l.logger.Debug("no image url, using placeholder")
		return placeholder
	}
	start := time.Now()
	img, err := l.fetch(ctx, url)
	if err != nil {
		outcome := classify(err)
		l.metrics.ImageLoad(outcome)
		l.logger.Warn("image load failed, using placeholder",
			zap.String("url", url),
			zap.String("outcome", outcome),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err))
		return placeholder
	}
	l.metrics.ImageLoad(metrics.LoadOK)
	b := img.Bounds()
	l.logger.Info("image loaded",
		zap.String("url", url),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Duration("dur", time.Since(start)))
	return img
}

func (l *Loader) fetch(ctx context.Context, url string) (image.Image, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "image/*")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrFetch, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if l.maxBytes > 0 {
		body = io.LimitReader(resp.Body, l.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrFetch, err)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrFetch, l.maxBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", domain.ErrDecode)
	}
	return img, nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return metrics.LoadCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.LoadTimeout
	case errors.Is(err, domain.ErrDecode):
		return metrics.LoadDecodeError
	default:
		return metrics.LoadFetchError
	}
}
