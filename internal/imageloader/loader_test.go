package imageloader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"svw.info/puzzle/internal/metrics"
)

// countingClient records calls and delegates to fn.
type countingClient struct {
	calls atomic.Int32
	fn    func(*http.Request) (*http.Response, error)
}

func (c *countingClient) Do(req *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.fn(req)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func response(status int, body []byte) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: http.Header{}}
}

func loadCount(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "puzzle_image_loads_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestLoadEmptyURLDoesNoNetworkIO(t *testing.T) {
	client := &countingClient{fn: func(*http.Request) (*http.Response, error) {
		return nil, errors.New("must not be called")
	}}
	l := New(WithClient(client), WithLogger(zap.NewNop()))
	ph := NewPlaceholder(0, 0)

	for _, url := range []string{"", "   "} {
		got := l.Load(context.Background(), url, ph)
		assert.Same(t, ph, got)
	}
	assert.Equal(t, int32(0), client.calls.Load())
}

func TestLoadDecodesImage(t *testing.T) {
	body := pngBytes(t, 90, 60)
	client := &countingClient{fn: func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "image/*", req.Header.Get("Accept"))
		return response(http.StatusOK, body), nil
	}}
	l := New(WithClient(client))
	ph := NewPlaceholder(10, 10)

	got := l.Load(context.Background(), "https://example.test/a.png", ph)
	assert.NotSame(t, ph, got)
	assert.Equal(t, image.Rect(0, 0, 90, 60), got.Bounds())
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestLoadFallsBackOnFailure(t *testing.T) {
	cases := []struct {
		name    string
		fn      func(*http.Request) (*http.Response, error)
		outcome string
	}{
		{"transport error", func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}, metrics.LoadFetchError},
		{"not found", func(*http.Request) (*http.Response, error) {
			return response(http.StatusNotFound, []byte("nope")), nil
		}, metrics.LoadFetchError},
		{"not an image", func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, []byte("<html>hello</html>")), nil
		}, metrics.LoadDecodeError},
		{"truncated png", func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, pngBytes(t, 20, 20)[:30]), nil
		}, metrics.LoadDecodeError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &countingClient{fn: tc.fn}
			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			l := New(WithClient(client), WithMetrics(m))
			ph := NewPlaceholder(0, 0)

			got := l.Load(context.Background(), "https://example.test/img", ph)
			assert.Same(t, ph, got)
			assert.Equal(t, int32(1), client.calls.Load(), "exactly one attempt")
			assert.Equal(t, 1.0, loadCount(t, reg, tc.outcome))
		})
	}
}

func TestLoadRejectsOversizedBody(t *testing.T) {
	body := pngBytes(t, 50, 50)
	client := &countingClient{fn: func(*http.Request) (*http.Response, error) {
		return response(http.StatusOK, body), nil
	}}
	l := New(WithClient(client), WithMaxBytes(int64(len(body)-1)))
	ph := NewPlaceholder(0, 0)
	assert.Same(t, ph, l.Load(context.Background(), "https://example.test/big.png", ph))
}

func TestLoadAgainstServer(t *testing.T) {
	body := pngBytes(t, 30, 30)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		case "/slow.png":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ph := NewPlaceholder(0, 0)
	l := New(WithClient(srv.Client()), WithTimeout(100*time.Millisecond))

	got := l.Load(context.Background(), srv.URL+"/ok.png", ph)
	assert.Equal(t, image.Rect(0, 0, 30, 30), got.Bounds())

	assert.Same(t, ph, l.Load(context.Background(), srv.URL+"/missing.png", ph))
	assert.Same(t, ph, l.Load(context.Background(), srv.URL+"/slow.png", ph))
}

func TestLoadUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/gone.png"
	srv.Close()

	ph := NewPlaceholder(0, 0)
	assert.Same(t, ph, New().Load(context.Background(), url, ph))
}

func TestLoadCanceledContext(t *testing.T) {
	client := &countingClient{fn: func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ph := NewPlaceholder(0, 0)
	assert.Same(t, ph, New(WithClient(client)).Load(ctx, "https://example.test/x.png", ph))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, metrics.LoadCanceled, classify(context.Canceled))
	assert.Equal(t, metrics.LoadTimeout, classify(context.DeadlineExceeded))
	assert.Equal(t, metrics.LoadFetchError, classify(errors.New("boom")))
}

func TestNewPlaceholder(t *testing.T) {
	ph := NewPlaceholder(0, -3)
	assert.Equal(t, image.Rect(0, 0, DefaultPlaceholderSize, DefaultPlaceholderSize), ph.Bounds())
	assert.Equal(t, PlaceholderGray, ph.GrayAt(50, 50))

	ph = NewPlaceholder(40, 20)
	assert.Equal(t, image.Rect(0, 0, 40, 20), ph.Bounds())
}
