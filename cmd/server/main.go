package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"odil-be/internal/auth"
	"odil-be/internal/cache"
	"odil-be/internal/cart"
	"odil-be/internal/catalogue"
	"odil-be/internal/config"
	"odil-be/internal/db"
	"odil-be/internal/handler"
	"odil-be/internal/logger"
	"odil-be/internal/metrics"
	"odil-be/internal/middleware"
	"odil-be/internal/order"
	"odil-be/internal/product"
	"odil-be/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionIdle     = 2 * time.Hour
	sweepInterval   = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

// server holds the wired application and what has to be released on exit.
type server struct {
	handler   http.Handler
	catalogue catalogue.Service
	sessions  *cart.Sessions
	hub       *realtime.Hub
	limiter   *middleware.RateLimiter
	closers   []func() error
}

func (s *server) Close() {
	s.hub.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.L().Warn("failed to release resource", zap.Error(err))
		}
	}
}

func newServer(cfg *config.Config) *server {
	s := &server{}
	reg := metrics.Default

	var (
		productRepo product.Repository = product.NewMemoryRepository()
		orderRepo   order.Repository   = order.NewMemoryRepository()
	)
	if cfg.UseDatabase() {
		database := initDBFunc(cfg)
		s.closers = append(s.closers, database.Close)
		productRepo = product.NewPGRepository(database, db.DSN(cfg))
		orderRepo = order.NewRepository(database)
	} else {
		logger.L().Warn("DB_HOST not set, owner records and orders are kept in memory")
	}

	opts := catalogue.Options{
		RetryAttempts: cfg.SyncRetryAttempts,
		RetryDelay:    cfg.SyncRetryDelay,
		Metrics:       reg,
	}
	snapshots, err := cache.Open(cfg.CacheDir)
	if err != nil {
		logger.L().Warn("running without a local snapshot", zap.Error(err))
	} else {
		opts.Cache = snapshots
		s.closers = append(s.closers, snapshots.Close)
	}

	s.catalogue = catalogue.NewService(productRepo, opts)
	s.hub = realtime.NewHub(reg, cfg.AllowedOrigins()...)
	s.catalogue.OnChange(s.hub.CatalogueChanged)

	s.sessions = cart.NewSessions()
	owner := auth.NewOwner(cfg.JWTSecret, cfg.OwnerPasswordHash, auth.DefaultTokenTTL)
	h := handler.New(handler.Deps{
		Catalogue: s.catalogue,
		Cart:      cart.NewService(s.sessions, s.catalogue),
		Orders:    order.NewService(orderRepo, order.NewWhatsApp(cfg.WhatsAppNumber), reg),
		Owner:     owner,
		Hub:       s.hub,
		Metrics:   reg,
		Secure:    cfg.IsProduction(),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	h.Register(r)

	s.limiter = middleware.NewRateLimiter(reg)
	s.handler = middleware.Chain(r,
		middleware.Recover,
		logger.RequestIDMiddleware,
		middleware.SessionMiddleware,
		logger.LoggingMiddleware,
		middleware.CORS(cfg.AllowedOrigins()),
		middleware.Gzip,
		middleware.AuthMiddleware(owner),
		s.limiter.Middleware,
	)
	return s
}

// sweep drops idle cart sessions until ctx is done.
func sweep(ctx context.Context, sessions *cart.Sessions) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(sessionIdle); n > 0 {
				logger.L().Info("idle cart sessions dropped", zap.Int("count", n))
			}
		}
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newServer(cfg)
	defer s.Close()

	if err := s.catalogue.Load(ctx); err != nil {
		logger.L().Warn("starting with the built-in catalogue only", zap.Error(err))
	}
	go func() {
		if err := s.catalogue.Run(ctx); err != nil {
			logger.L().Warn("change feed stopped", zap.Error(err))
		}
	}()
	go sweep(ctx, s.sessions)
	go s.limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("🚀 server running", zap.String("addr", srv.Addr))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.L().Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
