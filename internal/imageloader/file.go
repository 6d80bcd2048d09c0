package imageloader

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"svw.info/puzzle/internal/domain"
)

// Decode reads an image file in any registered format.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDecode, path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: empty image", domain.ErrDecode, path)
	}
	return img, nil
}

// Resolve loads ref as a URL when it has an http(s) scheme and as a file
// otherwise. Unlike Load, a failed fetch is reported instead of replaced.
func (l *Loader) Resolve(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return l.fetch(ctx, ref)
	}
	return Decode(ref)
}
