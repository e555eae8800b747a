// Package apihttp exposes a minimal ops surface: liveness plus a status
// snapshot of the queue and store.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"candlefill/internal/config"
	"candlefill/internal/logger"

	"github.com/gin-gonic/gin"
)

// QueueStats reports pending and failed work counts.
type QueueStats interface {
	Depth(ctx context.Context) (pending, failed int64, err error)
}

// StoreStats reports how many candles are persisted.
type StoreStats interface {
	CandleCount(ctx context.Context) (int64, error)
}

type Server struct {
	addr   string
	router *gin.Engine
}

type ServerConfig struct {
	Addr     string
	Queue    QueueStats
	Store    StoreStats
	Backfill config.BackfillConfig
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/status", func(c *gin.Context) {
		out := gin.H{
			"workers":        cfg.Backfill.Workers,
			"whitelist":      cfg.Backfill.Whitelist,
			"resolutions":    cfg.Backfill.Resolutions,
			"target_candles": cfg.Backfill.TargetCandles,
		}
		if cfg.Queue != nil {
			pending, failed, err := cfg.Queue.Depth(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out["queue_pending"] = pending
			out["queue_failed"] = failed
		}
		if cfg.Store != nil {
			count, err := cfg.Store.CandleCount(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out["candles"] = count
		}
		c.JSON(http.StatusOK, out)
	})

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[http] listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}
