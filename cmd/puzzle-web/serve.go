package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadapter "svw.info/puzzle/internal/adapters/http"
	"svw.info/puzzle/internal/config"
	"svw.info/puzzle/internal/imageloader"
	"svw.info/puzzle/internal/infrastructure/storage"
	"svw.info/puzzle/internal/metrics"
	"svw.info/puzzle/internal/partition"
	"svw.info/puzzle/internal/ports"
	"svw.info/puzzle/internal/ranking"
	"svw.info/puzzle/internal/render"
	"svw.info/puzzle/internal/seed"
	"svw.info/puzzle/internal/store"
	"svw.info/puzzle/internal/usecase"
	"svw.info/puzzle/internal/validator"
	"svw.info/puzzle/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the puzzle web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

// eventSource picks the YAML directory when one is configured and the
// built-in demo otherwise.
func eventSource(cfg *config.Config) (ports.EventSource, error) {
	if cfg.Event.Dir == "" {
		return seed.NewBuiltin(config.DemoImageURL), nil
	}
	if cfg.Event.ID == "" {
		return nil, errors.New("event.id is required when event.dir is set")
	}
	return storage.NewFS(cfg.Event.Dir), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	var (
		reg *prometheus.Registry
		m   *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	events, err := eventSource(cfg)
	if err != nil {
		return err
	}

	// Wire providers → store → use cases → HTTP adapter
	loader := imageloader.New(
		imageloader.WithTimeout(cfg.Image.FetchTimeout),
		imageloader.WithMaxBytes(cfg.Image.MaxBytes),
		imageloader.WithLogger(logger.Named("image")),
		imageloader.WithMetrics(m),
	)
	st := store.New(events, seed.NewGridSeeder(nil), validator.New(), loader, store.Options{
		EventID:     cfg.Event.ID,
		ImageURL:    cfg.Image.URL,
		Placeholder: imageloader.NewPlaceholder(cfg.Image.PlaceholderSize, cfg.Image.PlaceholderSize),
		Logger:      logger.Named("store"),
		Metrics:     m,
	})
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Initialize(ctx); err != nil {
		return err
	}
	uc := usecase.NewService(st, render.New(partition.New(), render.DefaultOptions()), ranking.New(), events)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), httpadapter.RequestLogger(logger.Named("http")))
	engine.SetHTMLTemplate(web.Templates())
	engine.StaticFS("/static", web.StaticFS())
	engine.GET("/", func(c *gin.Context) {
		title := ""
		if ev := st.Event(); ev != nil {
			title = ev.Title
		}
		c.HTML(http.StatusOK, web.IndexTemplate, web.NewPage(title))
	})
	if reg != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	httpadapter.New(uc, logger.Named("api"), m).Register(engine)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("event", st.Event().ID),
			zap.Bool("metrics", reg != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	return nil
}
