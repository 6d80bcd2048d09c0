package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svw.info/puzzle/internal/config"
	"svw.info/puzzle/internal/domain"
	"svw.info/puzzle/internal/imageloader"
	"svw.info/puzzle/internal/infrastructure/storage"
	"svw.info/puzzle/internal/partition"
	"svw.info/puzzle/internal/render"
	"svw.info/puzzle/internal/seed"
	"svw.info/puzzle/internal/validator"
)

var (
	renderEvent string
	renderImage string
	renderOut   string

	cropImage string
	cropRows  int
	cropCols  int
	cropRow   int
	cropCol   int
	cropOut   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an event's grid to a PNG",
	Long: `Seeds the event (a YAML definition, or the built-in demo when --event is
empty) and draws every piece: filled pieces show their crop of the image,
the rest are blank.`,
	RunE: runRender,
}

var cropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Cut one piece out of an image",
	RunE:  runCrop,
}

func init() {
	renderCmd.Flags().StringVar(&renderEvent, "event", "", "event YAML file (default: built-in demo)")
	renderCmd.Flags().StringVar(&renderImage, "image", "", "image path or http(s) URL (default: the event's image)")
	renderCmd.Flags().StringVar(&renderOut, "out", "puzzle.png", "output PNG")

	cropCmd.Flags().StringVar(&cropImage, "image", "", "image path or http(s) URL")
	cropCmd.Flags().IntVar(&cropRows, "rows", 3, "grid rows")
	cropCmd.Flags().IntVar(&cropCols, "cols", 3, "grid columns")
	cropCmd.Flags().IntVar(&cropRow, "row", 1, "piece row, 1-based")
	cropCmd.Flags().IntVar(&cropCol, "col", 1, "piece column, 1-based")
	cropCmd.Flags().StringVar(&cropOut, "out", "piece.png", "output PNG")
	_ = cropCmd.MarkFlagRequired("image")
}

func readEvent(path string) (*domain.Event, error) {
	if path == "" {
		return seed.Demo(config.DemoImageURL), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return storage.ParseEvent(f)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func newLoader(cfg *config.Config, logger *zap.Logger) *imageloader.Loader {
	return imageloader.New(
		imageloader.WithTimeout(cfg.Image.FetchTimeout),
		imageloader.WithMaxBytes(cfg.Image.MaxBytes),
		imageloader.WithLogger(logger),
	)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ev, err := readEvent(renderEvent)
	if err != nil {
		return err
	}
	data, err := seed.NewGridSeeder(nil).Seed(ctx, ev)
	if err != nil {
		return err
	}
	if ok, violations, err := validator.New().Validate(ctx, data); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("event %q: %w: %v", ev.ID, domain.ErrInvalidGrid, violations)
	}

	ref := renderImage
	if ref == "" {
		ref = ev.ImageURL
	}
	var img image.Image
	if ref == "" {
		img = imageloader.NewPlaceholder(cfg.Image.PlaceholderSize, cfg.Image.PlaceholderSize)
	} else if img, err = newLoader(cfg, logger).Resolve(ctx, ref); err != nil {
		return err
	}

	out, err := render.New(partition.New(), render.DefaultOptions()).Compose(ctx, data, img)
	if err != nil {
		return err
	}
	if err := writePNG(renderOut, out); err != nil {
		return err
	}
	logger.Info("rendered",
		zap.String("event", ev.ID),
		zap.Int("filled", data.FilledCount),
		zap.Int("total", data.TotalPieces),
		zap.String("out", renderOut))
	return nil
}

func runCrop(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	img, err := newLoader(cfg, logger).Resolve(ctx, cropImage)
	if err != nil {
		return err
	}
	piece, err := partition.New().Crop(img, cropRow, cropCol, cropRows, cropCols)
	if err != nil {
		return err
	}
	if err := writePNG(cropOut, piece); err != nil {
		return err
	}
	b := piece.Bounds()
	logger.Info("cropped", zap.Int("width", b.Dx()), zap.Int("height", b.Dy()), zap.String("out", cropOut))
	return nil
}
