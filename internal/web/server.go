// Package web gin server
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	adminCtl "github.com/Laisky/laisky-cms/internal/web/admin/controller"
	bannerCtl "github.com/Laisky/laisky-cms/internal/web/banner/controller"
	blogCtl "github.com/Laisky/laisky-cms/internal/web/blog/controller"
	"github.com/Laisky/laisky-cms/library/log"
	"github.com/Laisky/laisky-cms/library/throttle"
)

const shutdownTimeout = 15 * time.Second

// Controllers served under /api/v1
type Controllers struct {
	Admin  *adminCtl.Admin
	Blog   *blogCtl.Blog
	Banner *bannerCtl.Banner
}

// Options of the http server
type Options struct {
	CORSOrigins []string
	// StaticDir served at /static, empty disables it
	StaticDir string
	// UploadDir served at /uploads, empty disables it
	UploadDir          string
	MaxMultipartMemory int64
	// Throttle limits /api/v1, nil disables it
	Throttle           *throttle.Throttle
	EnableMetric       bool
	Debug              bool
}

// NewServer builds the gin engine with middlewares and routes
func NewServer(ctls Controllers, opt Options) (*gin.Engine, error) {
	if !opt.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server := gin.New()
	if opt.MaxMultipartMemory > 0 {
		server.MaxMultipartMemory = opt.MaxMultipartMemory
	}
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(log.Logger.Level().String()),
			gmw.WithLogger(log.Logger.Named("gin")),
		),
		allowCORS(opt.CORSOrigins),
	)

	if opt.EnableMetric {
		if err := gmw.EnableMetric(server); err != nil {
			return nil, errors.Wrap(err, "enable metric")
		}
	}

	server.Any("/health", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "hello, world")
	})
	if opt.StaticDir != "" {
		server.Static("/static", opt.StaticDir)
	}
	if opt.UploadDir != "" {
		server.Static("/uploads", opt.UploadDir)
	}

	api := server.Group("/api/v1")
	if opt.Throttle != nil {
		api.Use(throttleRequests(opt.Throttle))
	}
	ctls.Admin.Register(api.Group("/admin"))
	ctls.Blog.Register(api.Group("/blog"), ctls.Admin.AdminOnly)
	ctls.Banner.Register(api.Group("/banner"), ctls.Admin.AdminOnly)

	return server, nil
}

// RunServer serves until ctx is done, then shuts down gracefully
func RunServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Info("listening on http", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server exit")
	case <-ctx.Done():
	}

	log.Logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server exit")
	}

	return nil
}
