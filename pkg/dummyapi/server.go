package dummyapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Addr            string        `default:"127.0.0.1:8000"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s"`
}

// NewEngine serves the dataset read-only. Every path other than the five
// known GET routes answers 404 with an empty body.
func NewEngine(data Dataset) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	status := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.GET("/", status)
	r.GET("/health", status)
	r.GET("/customers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"customers": nonNil(data.Customers)})
	})
	r.GET("/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"orders": nonNil(data.Orders)})
	})
	r.GET("/tickets", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tickets": nonNil(data.Tickets)})
	})
	r.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})
	return r
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("dummy api request")
	}
}

// Serve runs the engine until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("dummy api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dummy api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dummy api shutdown: %w", err)
	}
	return nil
}
